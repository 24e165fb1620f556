package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

// profiles served by the pprof lookup handler.
var profiles = []string{"heap", "allocs", "goroutine", "threadcreate", "block", "mutex"}

// WrapHandler adapts a standard http.Handler to the router handle signature.
func WrapHandler(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

// HandleToHandler adapts a router handle to a standard http.Handler. Used
// for the router fallbacks which are not given route params.
func HandleToHandler(h httprouter.Handle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r, nil)
	})
}

// profilerHandles maps each pprof endpoint suffix to its handle.
func profilerHandles() map[string]httprouter.Handle {
	handles := map[string]httprouter.Handle{
		"":        WrapHandler(http.HandlerFunc(pprof.Index)),
		"profile": WrapHandler(http.HandlerFunc(pprof.Profile)),
		"trace":   WrapHandler(http.HandlerFunc(pprof.Trace)),
		"symbol":  WrapHandler(http.HandlerFunc(pprof.Symbol)),
		"cmdline": WrapHandler(http.HandlerFunc(pprof.Cmdline)),
	}
	for _, name := range profiles {
		handles[name] = WrapHandler(pprof.Handler(name))
	}
	return handles
}
