package main

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownAuthor(id string) bool { return id == "a:000001" }

func validBookFields() Fields {
	return Fields{
		"title":         "Things Fall Apart",
		"authorId":      "a:000001",
		"isbn":          "978-0-385-47454-2",
		"publishedYear": float64(1958),
	}
}

// requireValidationError asserts err is a validation error and returns its field messages.
func requireValidationError(t *testing.T, err error) map[string][]string {
	t.Helper()
	require.Error(t, err)
	appErr := AsAppError(err)
	require.Equal(t, KindValidation, appErr.Kind)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Equal(t, "fail", appErr.Status())
	return appErr.Errors
}

func TestValidateAuthorInput(t *testing.T) {
	v := NewValidator(NewMockClocker())

	t.Run("should pass: name with optionals", func(t *testing.T) {
		patch, err := v.ValidateAuthorInput(Fields{"name": "Chinua Achebe", "biography": "Nigerian novelist", "birthDate": "1930-11-16"})
		require.NoError(t, err)
		assert.Equal(t, Some("Chinua Achebe"), patch.Name)
		require.True(t, patch.Biography.Set)
		assert.Equal(t, "Nigerian novelist", *patch.Biography.Value)
		require.True(t, patch.BirthDate.Set)
		assert.Equal(t, 1930, patch.BirthDate.Value.Year())
	})

	testCases := []struct {
		name   string
		fields Fields
	}{
		{"missing name", Fields{}},
		{"blank name", Fields{"name": "   "}},
		{"non string name", Fields{"name": 42.0}},
		{"null name", Fields{"name": nil}},
	}
	for _, tc := range testCases {
		t.Run("should fail: "+tc.name, func(t *testing.T) {
			_, err := v.ValidateAuthorInput(tc.fields)
			require.Error(t, err)
			appErr := AsAppError(err)
			assert.Equal(t, KindBadRequest, appErr.Kind)
			assert.Equal(t, "Name is required and must be a non-empty string", appErr.Message)
		})
	}

	t.Run("should fail: invalid optionals", func(t *testing.T) {
		_, err := v.ValidateAuthorInput(Fields{"name": "A", "biography": 12.0, "birthDate": "not-a-date"})
		errs := requireValidationError(t, err)
		assert.Equal(t, []string{"Biography must be a string"}, errs["biography"])
		assert.Equal(t, []string{"Birth date must be a valid date (YYYY-MM-DD)"}, errs["birthDate"])
	})
}

func TestValidateAuthorPatch(t *testing.T) {
	v := NewValidator(NewMockClocker())

	t.Run("should pass: absent name is left unset", func(t *testing.T) {
		patch, err := v.ValidateAuthorPatch(Fields{"biography": "updated"})
		require.NoError(t, err)
		assert.False(t, patch.Name.Set)
		assert.True(t, patch.Biography.Set)
		assert.False(t, patch.BirthDate.Set)
	})

	t.Run("should pass: null clears optionals", func(t *testing.T) {
		patch, err := v.ValidateAuthorPatch(Fields{"biography": nil, "birthDate": ""})
		require.NoError(t, err)
		assert.True(t, patch.Biography.Set)
		assert.Nil(t, patch.Biography.Value)
		assert.True(t, patch.BirthDate.Set)
		assert.Nil(t, patch.BirthDate.Value)
	})

	t.Run("should fail: empty name", func(t *testing.T) {
		_, err := v.ValidateAuthorPatch(Fields{"name": ""})
		require.Error(t, err)
		assert.Equal(t, KindBadRequest, AsAppError(err).Kind)
	})
}

func TestValidateBookInput(t *testing.T) {
	v := NewValidator(NewMockClocker())

	t.Run("should pass: valid payload", func(t *testing.T) {
		fields := validBookFields()
		fields["genre"] = "Novel"
		patch, err := v.ValidateBookInput(fields, knownAuthor)
		require.NoError(t, err)
		assert.Equal(t, Some("Things Fall Apart"), patch.Title)
		assert.Equal(t, Some("a:000001"), patch.AuthorID)
		assert.Equal(t, Some(1958), patch.PublishedYear)
		require.True(t, patch.Genre.Set)
		assert.Equal(t, "Novel", *patch.Genre.Value)
		assert.False(t, patch.Description.Set)
	})

	t.Run("should fail: every missing field is reported", func(t *testing.T) {
		_, err := v.ValidateBookInput(Fields{}, knownAuthor)
		errs := requireValidationError(t, err)
		assert.Equal(t, map[string][]string{
			"title":         {"Title is required and must be a non-empty string"},
			"authorId":      {"Author ID is required"},
			"isbn":          {"ISBN is required and must contain only numbers and hyphens"},
			"publishedYear": {"Published year is required"},
		}, errs)
	})

	t.Run("should fail: only invalid fields are reported", func(t *testing.T) {
		fields := validBookFields()
		fields["isbn"] = "abc123"
		_, err := v.ValidateBookInput(fields, knownAuthor)
		errs := requireValidationError(t, err)
		assert.Len(t, errs, 1)
		assert.Equal(t, []string{"ISBN is required and must contain only numbers and hyphens"}, errs["isbn"])
	})

	t.Run("should fail: unknown author", func(t *testing.T) {
		fields := validBookFields()
		fields["authorId"] = "a:999999"
		_, err := v.ValidateBookInput(fields, knownAuthor)
		errs := requireValidationError(t, err)
		assert.Equal(t, []string{"Author with the provided ID does not exist"}, errs["authorId"])
	})

	isbnCases := []struct {
		isbn  interface{}
		valid bool
	}{
		{"978-3-16", true},
		{"9783161484100", true},
		{"abc123", false},
		{"978 3 16", false},
		{"", false},
		{9783161484100.0, false},
	}
	for _, tc := range isbnCases {
		fields := validBookFields()
		fields["isbn"] = tc.isbn
		_, err := v.ValidateBookInput(fields, knownAuthor)
		assert.Equal(t, tc.valid, err == nil, "isbn %v", tc.isbn)
	}

	yearCases := []struct {
		year    interface{}
		message string
	}{
		{float64(1500), ""},
		{float64(1000), ""},
		{float64(2025), ""},
		{"1958", ""},
		{float64(999), "Published year must be a valid year"},
		{float64(2026), "Published year must be a valid year"},
		{float64(3000), "Published year must be a valid year"},
		{1958.5, "Published year must be a valid year"},
		{"nineteen", "Published year must be a number"},
		{true, "Published year must be a number"},
		{nil, "Published year is required"},
	}
	for _, tc := range yearCases {
		fields := validBookFields()
		fields["publishedYear"] = tc.year
		_, err := v.ValidateBookInput(fields, knownAuthor)
		if tc.message == "" {
			assert.NoError(t, err, "year %v", tc.year)
			continue
		}
		errs := requireValidationError(t, err)
		assert.Equal(t, []string{tc.message}, errs["publishedYear"], "year %v", tc.year)
	}
}

func TestValidateBookPatch(t *testing.T) {
	v := NewValidator(NewMockClocker())

	t.Run("should pass: only present keys are checked", func(t *testing.T) {
		patch, err := v.ValidateBookPatch(Fields{"title": "New title"}, knownAuthor)
		require.NoError(t, err)
		assert.Equal(t, Some("New title"), patch.Title)
		assert.False(t, patch.AuthorID.Set)
		assert.False(t, patch.ISBN.Set)
		assert.False(t, patch.PublishedYear.Set)
	})

	t.Run("should pass: empty patch", func(t *testing.T) {
		patch, err := v.ValidateBookPatch(Fields{}, knownAuthor)
		require.NoError(t, err)
		assert.Equal(t, BookPatch{}, patch)
	})

	t.Run("should fail: present but invalid", func(t *testing.T) {
		_, err := v.ValidateBookPatch(Fields{"title": "", "publishedYear": float64(3000)}, knownAuthor)
		errs := requireValidationError(t, err)
		assert.Len(t, errs, 2)
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "publishedYear")
	})
}

func TestValidateListQuery(t *testing.T) {
	v := NewValidator(NewMockClocker())

	t.Run("should pass: defaults", func(t *testing.T) {
		q, err := v.ValidateListQuery(url.Values{}, BookSortSafelist)
		require.NoError(t, err)
		assert.Equal(t, ListQuery{}, q)
	})

	t.Run("should pass: descending sort with limit", func(t *testing.T) {
		q, err := v.ValidateListQuery(url.Values{"sort": {"-publishedYear"}, "limit": {"5"}, "search": {" fall "}}, BookSortSafelist)
		require.NoError(t, err)
		assert.Equal(t, ListQuery{Search: "fall", Sort: "publishedYear", Descending: true, Limit: 5}, q)
	})

	t.Run("should fail: unknown sort and bad limit", func(t *testing.T) {
		_, err := v.ValidateListQuery(url.Values{"sort": {"price"}, "limit": {"0"}}, BookSortSafelist)
		errs := requireValidationError(t, err)
		assert.Equal(t, []string{"Sort must be one of the supported fields"}, errs["sort"])
		assert.Equal(t, []string{"Limit must be a positive integer"}, errs["limit"])
	})

	t.Run("should fail: non numeric limit", func(t *testing.T) {
		_, err := v.ValidateListQuery(url.Values{"limit": {"ten"}}, AuthorSortSafelist)
		errs := requireValidationError(t, err)
		assert.Contains(t, errs, "limit")
	})
}
