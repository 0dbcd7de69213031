// Package validate holds the field-level domain validators shared by the
// project and application services.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/aoba-arch/permitdesk/internal/pkg/apperr"
)

var (
	digitsOnly   = regexp.MustCompile(`^\d+$`)
	phoneStrip   = strings.NewReplacer("-", "", "(", "", ")", "", " ", "", "　", "")
	forbiddenSet = []string{"<", ">", `"`, "'", "&"}
)

// ProjectName requires a non-blank name of at most 200 characters without
// markup-sensitive characters. Returns the trimmed name.
func ProjectName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apperr.Validation("project_name", "required")
	}
	if len([]rune(trimmed)) > 200 {
		return "", apperr.Validation("project_name", "must be 200 characters or fewer")
	}
	for _, c := range forbiddenSet {
		if strings.Contains(trimmed, c) {
			return "", apperr.Validation("project_name", `must not contain < > " ' &`)
		}
	}
	return trimmed, nil
}

// OwnerName requires a non-blank name of at most 100 characters after trim.
func OwnerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apperr.Validation("owner_name", "required")
	}
	if len([]rune(trimmed)) > 100 {
		return "", apperr.Validation("owner_name", "must be 100 characters or fewer")
	}
	return trimmed, nil
}

// ZipCode accepts a 7-digit Japanese postal code, optionally with one hyphen
// (e.g. 123-4567). Empty input is allowed.
func ZipCode(zip string) error {
	if zip == "" {
		return nil
	}
	cleaned := strings.Replace(zip, "-", "", 1)
	if !digitsOnly.MatchString(cleaned) || len(cleaned) != 7 {
		return apperr.Validation("owner_zip", "must be 7 digits, optionally hyphenated")
	}
	return nil
}

// Phone accepts 10 or 11 digits after stripping hyphens, parentheses and
// spaces. Empty input is allowed.
func Phone(field, phone string) error {
	if phone == "" {
		return nil
	}
	cleaned := phoneStrip.Replace(phone)
	if !digitsOnly.MatchString(cleaned) {
		return apperr.Validation(field, "may contain only digits and separators")
	}
	if len(cleaned) < 10 || len(cleaned) > 11 {
		return apperr.Validation(field, "must be 10 or 11 digits")
	}
	return nil
}

// PositiveArea rejects zero and negative surface values.
func PositiveArea(field string, v float64) error {
	if v <= 0 {
		return apperr.Validation(field, "must be greater than zero")
	}
	return nil
}

// NonNegativeAmount rejects negative monetary values.
func NonNegativeAmount(field string, v int64) error {
	if v < 0 {
		return apperr.Validation(field, "must not be negative")
	}
	return nil
}

// NotInFuture rejects calendar dates after today.
func NotInFuture(field string, d time.Time) error {
	if d.Format("2006-01-02") > time.Now().Format("2006-01-02") {
		return apperr.Validation(field, "must not be in the future")
	}
	return nil
}
