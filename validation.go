package main

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/cast"
)

const (
	MinPublishedYear = 1000

	msgNameRequired        = "Name is required and must be a non-empty string"
	msgBiographyType       = "Biography must be a string"
	msgBirthDateInvalid    = "Birth date must be a valid date (YYYY-MM-DD)"
	msgTitleRequired       = "Title is required and must be a non-empty string"
	msgAuthorIDRequired    = "Author ID is required"
	msgAuthorIDUnknown     = "Author with the provided ID does not exist"
	msgISBNInvalid         = "ISBN is required and must contain only numbers and hyphens"
	msgYearRequired        = "Published year is required"
	msgYearNotNumber       = "Published year must be a number"
	msgYearInvalid         = "Published year must be a valid year"
	msgGenreType           = "Genre must be a string"
	msgDescriptionType     = "Description must be a string"
	msgLimitInvalid        = "Limit must be a positive integer"
	msgSortInvalid         = "Sort must be one of the supported fields"
	msgValidationFailed    = "Validation failed"
	msgInvalidQueryOptions = "Invalid query parameters"
)

var isbnPattern = regexp.MustCompile(`^[0-9-]+$`)

var (
	AuthorSortSafelist = []string{"name", "bookCount", "birthDate"}
	BookSortSafelist   = []string{"title", "publishedYear", "isbn", "genre"}
)

// Validator checks request field sets. It holds no state besides the
// clock used to compute the accepted publication years.
type Validator struct {
	clock Clocker
}

func NewValidator(clock Clocker) *Validator {
	return &Validator{clock: clock}
}

// ValidateAuthorInput checks a creation payload and returns the patch to apply.
func (v *Validator) ValidateAuthorInput(fields Fields) (AuthorPatch, error) {
	name, ok := fields["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return AuthorPatch{}, BadRequest(msgNameRequired)
	}
	return v.authorOptionals(fields, Some(name))
}

// ValidateAuthorPatch checks an update payload. Only the present keys are checked.
func (v *Validator) ValidateAuthorPatch(fields Fields) (AuthorPatch, error) {
	var name Optional[string]
	if fields.Has("name") {
		s, ok := fields["name"].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return AuthorPatch{}, BadRequest(msgNameRequired)
		}
		name = Some(s)
	}
	return v.authorOptionals(fields, name)
}

func (v *Validator) authorOptionals(fields Fields, name Optional[string]) (AuthorPatch, error) {
	errs := validation.Errors{
		"biography": validation.Validate(fields["biography"], validation.By(optionalString(msgBiographyType))),
		"birthDate": validation.Validate(fields["birthDate"], validation.By(optionalDate)),
	}
	if err := errs.Filter(); err != nil {
		return AuthorPatch{}, Validation(msgValidationFailed, fieldMessages(err))
	}

	patch := AuthorPatch{Name: name}
	if fields.Has("biography") {
		patch.Biography = Some(nonEmpty(fields["biography"]))
	}
	if fields.Has("birthDate") {
		var bd *time.Time
		if s := nonEmpty(fields["birthDate"]); s != nil {
			t, _ := parseDate(*s)
			bd = &t
		}
		patch.BirthDate = Some(bd)
	}
	return patch, nil
}

// ValidateBookInput checks a full book payload. Every violated field gets
// reported, valid fields never appear in the resulting errors map.
func (v *Validator) ValidateBookInput(fields Fields, authorExists func(id string) bool) (BookPatch, error) {
	return v.validateBook(fields, authorExists, false)
}

// ValidateBookPatch checks a partial book payload. Absent keys are left unchanged.
func (v *Validator) ValidateBookPatch(fields Fields, authorExists func(id string) bool) (BookPatch, error) {
	return v.validateBook(fields, authorExists, true)
}

func (v *Validator) validateBook(fields Fields, authorExists func(string) bool, partial bool) (BookPatch, error) {
	check := func(key string) bool { return !partial || fields.Has(key) }
	year := v.clock.Now().Year()

	errs := validation.Errors{
		"title": validation.Validate(fields["title"],
			validation.When(check("title"), validation.By(requiredString(msgTitleRequired)))),
		"authorId": validation.Validate(fields["authorId"],
			validation.When(check("authorId"), validation.By(existingAuthor(authorExists)))),
		"isbn": validation.Validate(fields["isbn"],
			validation.When(check("isbn"), validation.By(isbnRule))),
		"publishedYear": validation.Validate(fields["publishedYear"],
			validation.When(check("publishedYear"), validation.By(publishedYearRule(MinPublishedYear, year+1)))),
		"genre":       validation.Validate(fields["genre"], validation.By(optionalString(msgGenreType))),
		"description": validation.Validate(fields["description"], validation.By(optionalString(msgDescriptionType))),
	}
	if err := errs.Filter(); err != nil {
		return BookPatch{}, Validation(msgValidationFailed, fieldMessages(err))
	}

	var patch BookPatch
	if fields.Has("title") {
		patch.Title = Some(fields["title"].(string))
	}
	if fields.Has("authorId") {
		patch.AuthorID = Some(fields["authorId"].(string))
	}
	if fields.Has("isbn") {
		patch.ISBN = Some(fields["isbn"].(string))
	}
	if fields.Has("publishedYear") {
		patch.PublishedYear = Some(cast.ToInt(cast.ToFloat64(fields["publishedYear"])))
	}
	if fields.Has("genre") {
		patch.Genre = Some(nonEmpty(fields["genre"]))
	}
	if fields.Has("description") {
		patch.Description = Some(nonEmpty(fields["description"]))
	}
	return patch, nil
}

// ValidateListQuery reads `search`, `sort` and `limit` from the query string.
// A sort key prefixed with `-` sorts in descending order.
func (v *Validator) ValidateListQuery(values url.Values, safelist []string) (ListQuery, error) {
	q := ListQuery{Search: strings.TrimSpace(values.Get("search"))}
	sortKey := strings.TrimSpace(values.Get("sort"))
	limit := strings.TrimSpace(values.Get("limit"))

	errs := validation.Errors{
		"sort": validation.Validate(strings.TrimPrefix(sortKey, "-"),
			validation.In(stringsToAny(safelist)...).Error(msgSortInvalid)),
		"limit": validation.Validate(limit,
			is.Int.Error(msgLimitInvalid),
			validation.By(positiveInt)),
	}
	if err := errs.Filter(); err != nil {
		return q, Validation(msgInvalidQueryOptions, fieldMessages(err))
	}

	q.Descending = strings.HasPrefix(sortKey, "-")
	q.Sort = strings.TrimPrefix(sortKey, "-")
	if limit != "" {
		q.Limit, _ = strconv.Atoi(limit)
	}
	return q, nil
}

func requiredString(message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return validation.NewError("validation_required_string", message)
		}
		return nil
	}
}

func optionalString(message string) validation.RuleFunc {
	return func(value interface{}) error {
		if value == nil {
			return nil
		}
		if _, ok := value.(string); !ok {
			return validation.NewError("validation_string", message)
		}
		return nil
	}
}

func existingAuthor(authorExists func(string) bool) validation.RuleFunc {
	return func(value interface{}) error {
		id, ok := value.(string)
		if !ok || id == "" {
			return validation.NewError("validation_author_required", msgAuthorIDRequired)
		}
		if authorExists == nil || !authorExists(id) {
			return validation.NewError("validation_author_unknown", msgAuthorIDUnknown)
		}
		return nil
	}
}

func isbnRule(value interface{}) error {
	s, ok := value.(string)
	if !ok || !isbnPattern.MatchString(s) {
		return validation.NewError("validation_isbn", msgISBNInvalid)
	}
	return nil
}

// publishedYearRule accepts numbers and numeric strings holding a whole
// year in [min, max].
func publishedYearRule(min, max int) validation.RuleFunc {
	return func(value interface{}) error {
		if value == nil {
			return validation.NewError("validation_year_required", msgYearRequired)
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return validation.NewError("validation_year_required", msgYearRequired)
		}
		if _, ok := value.(bool); ok {
			return validation.NewError("validation_year_number", msgYearNotNumber)
		}
		year, err := cast.ToFloat64E(value)
		if err != nil || math.IsNaN(year) || math.IsInf(year, 0) {
			return validation.NewError("validation_year_number", msgYearNotNumber)
		}
		if year != math.Trunc(year) || year < float64(min) || year > float64(max) {
			return validation.NewError("validation_year_range", msgYearInvalid)
		}
		return nil
	}
}

func optionalDate(value interface{}) error {
	if value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_date", msgBirthDateInvalid)
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := parseDate(s); err != nil {
		return validation.NewError("validation_date", msgBirthDateInvalid)
	}
	return nil
}

func positiveInt(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err != nil || n <= 0 {
		return validation.NewError("validation_limit", msgLimitInvalid)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// nonEmpty turns a validated optional string into a pointer, nil when
// the value is null or empty so the field gets cleared.
func nonEmpty(value interface{}) *string {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// fieldMessages converts ozzo errors into the field -> messages mapping.
func fieldMessages(err error) map[string][]string {
	out := make(map[string][]string)
	errs, ok := err.(validation.Errors)
	if !ok {
		out["general"] = []string{err.Error()}
		return out
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if errs[k] != nil {
			out[k] = append(out[k], errs[k].Error())
		}
	}
	return out
}

func stringsToAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
