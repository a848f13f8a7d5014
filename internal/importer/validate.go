package importer

import (
	"fmt"
	"regexp"
	"strings"

	"debtorbatch/internal/debtor"
	"debtorbatch/internal/rules"
)

// Validator applies a tenant's compiled rule profile to parsed records.
// Built once per job so regexes compile once, not per row.
type Validator struct {
	email     *regexp.Regexp
	phones    []*regexp.Regexp
	algorithm string
}

// NewValidator compiles the profile's patterns.
func NewValidator(rule *rules.ValidationRule) (*Validator, error) {
	v := &Validator{algorithm: rule.Profile.Identification.RequiredAlgorithm}

	if pattern := rule.Profile.Email.Regex; pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile email regex: %w", err)
		}
		v.email = re
	}

	for _, format := range rule.Profile.Phone.Formats {
		re, err := regexp.Compile(format.Regex)
		if err != nil {
			return nil, fmt.Errorf("compile phone regex %q: %w", format.Type, err)
		}
		v.phones = append(v.phones, re)
	}

	return v, nil
}

// Validate returns one finding per violated rule, empty for a valid record.
// Messages are the technical forms the report presenter knows how to map to
// field and rule names.
func (v *Validator) Validate(rec *debtor.Record) []debtor.ValidationError {
	var errs []debtor.ValidationError
	add := func(msg string) {
		errs = append(errs, debtor.ValidationError{
			RowIndex:    rec.RowIndex,
			ExternalKey: rec.ExternalKey,
			Message:     msg,
		})
	}

	if rec.ExternalKey == "" {
		add("ExternalKey/Identificación is required")
	}

	if rec.FirstName == "" {
		add("FirstName/Nombres is required")
	}

	if rec.Amount <= 0 {
		add("Amount must be > 0")
	}

	if rec.DueDate.IsZero() {
		add("DueDate is invalid or missing")
	}

	if rec.Email != "" && v.email != nil && !v.email.MatchString(rec.Email) {
		add("Invalid email format")
	}

	if rec.PhoneNumber != "" && len(v.phones) > 0 && !v.matchesAnyPhone(rec.PhoneNumber) {
		add("Invalid phone format")
	}

	if rec.ExternalKey != "" && !validIdentification(rec.ExternalKey, v.algorithm) {
		add(fmt.Sprintf("Invalid identification for algorithm %s", v.algorithm))
	}

	return errs
}

func (v *Validator) matchesAnyPhone(phone string) bool {
	for _, re := range v.phones {
		if re.MatchString(phone) {
			return true
		}
	}
	return false
}

// validIdentification dispatches on the algorithm tag. Unknown tags always
// fail closed.
func validIdentification(key, algorithm string) bool {
	switch algorithm {
	case rules.AlgorithmMod01EC:
		return validMod01EC(key)
	case rules.AlgorithmMod02EC:
		return validMod02EC(key)
	case rules.AlgorithmNone:
		return validFreeform(key)
	default:
		return false
	}
}

var nonDigits = regexp.MustCompile(`\D`)

// validMod01EC checks an Ecuadorian cédula: 10 digits, province prefix in
// [1,24], and a modulo-10 check digit over the first nine digits with even
// positions doubled.
func validMod01EC(key string) bool {
	digits := nonDigits.ReplaceAllString(key, "")
	if len(digits) != 10 {
		return false
	}

	province := int(digits[0]-'0')*10 + int(digits[1]-'0')
	if province < 1 || province > 24 {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	verifier := (10 - sum%10) % 10
	return verifier == int(digits[9]-'0')
}

// validMod02EC checks an Ecuadorian RUC by format only: 13 digits ending in
// "001" with a valid province prefix.
func validMod02EC(key string) bool {
	digits := nonDigits.ReplaceAllString(key, "")
	if len(digits) != 13 || !strings.HasSuffix(digits, "001") {
		return false
	}
	province := int(digits[0]-'0')*10 + int(digits[1]-'0')
	return province >= 1 && province <= 24
}

var alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func validFreeform(key string) bool {
	return len(key) >= 6 && alphanumeric.MatchString(key)
}
