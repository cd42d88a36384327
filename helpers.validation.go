package main

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks the content of a book creation request.
func (in CreateBookInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&in.Synopsis, validation.RuneLength(0, 1000)),
		validation.Field(&in.AuthorID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.CategoryIDs, validation.Each(validation.Min(int64(1)))),
	))
}

// Validate checks the content of a book update request.
func (in UpdateBookInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&in.Synopsis, validation.RuneLength(0, 1000)),
		validation.Field(&in.AuthorID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.CategoryIDs, validation.Required, validation.Each(validation.Min(int64(1)))),
	))
}

// Validate checks the content of a member creation request.
func (in CreateMemberInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&in.CardNumber, validation.Required, validation.RuneLength(1, 50)),
	))
}

// Validate checks the content of a member update request.
func (in UpdateMemberInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&in.CardNumber, validation.Required, validation.RuneLength(1, 50)),
	))
}

// asValidationError flattens ozzo field errors into a ValidationError.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := ValidationError{}
	for field, ferr := range fieldErrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// queryParser reads typed values from url query parameters and
// collects one message per malformed parameter.
type queryParser struct {
	values url.Values
	errs   ValidationError
}

func newQueryParser(values url.Values) *queryParser {
	return &queryParser{values: values, errs: ValidationError{}}
}

func (p *queryParser) String(name string) string {
	return strings.TrimSpace(p.values.Get(name))
}

func (p *queryParser) Int(name string, fallback int) int {
	raw := p.String(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs[name] = "must be an integer"
		return fallback
	}
	return v
}

func (p *queryParser) Int64Ptr(name string) *int64 {
	raw := p.String(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.errs[name] = "must be an integer"
		return nil
	}
	return &v
}

func (p *queryParser) Bool(name string) bool {
	raw := p.String(name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs[name] = "must be a boolean"
		return false
	}
	return v
}

func (p *queryParser) Err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs
}

// ParseBookQuery builds a books listing query from the request parameters.
func ParseBookQuery(values url.Values) (BookQuery, error) {
	p := newQueryParser(values)
	query := BookQuery{
		Title:        p.String("title"),
		CategoryID:   p.Int64Ptr("categoryId"),
		SortBy:       p.String("sortBy"),
		IsDescending: p.Bool("isDescending"),
		PageNumber:   p.Int("pageNumber", DefaultPageNumber),
		PageSize:     p.Int("pageSize", DefaultPageSize),
	}
	return query.Normalize(), p.Err()
}

// ParseMemberQuery builds a members listing query from the request parameters.
func ParseMemberQuery(values url.Values) (MemberQuery, error) {
	p := newQueryParser(values)
	query := MemberQuery{
		Name:       p.String("name"),
		PageNumber: p.Int("pageNumber", DefaultPageNumber),
		PageSize:   p.Int("pageSize", DefaultPageSize),
	}
	return query.Normalize(), p.Err()
}
