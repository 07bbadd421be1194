package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	matchTypePreliminary     = "preliminaires"
	matchTypePrincipalPrefix = "principal_"
)

var ErrInvalidMatchType = errors.New("invalid match type")

// MatchType is either the preliminary round or a numbered main round.
// The zero value is the preliminary round.
type MatchType struct {
	round int
}

var Preliminary = MatchType{}

// Principal returns the main round with the given 1-based number.
func Principal(round int) (MatchType, error) {
	if round < 1 {
		return MatchType{}, fmt.Errorf("%w: main round must be >= 1, got %d", ErrInvalidMatchType, round)
	}
	return MatchType{round: round}, nil
}

// MustPrincipal is Principal for round numbers known to be valid.
func MustPrincipal(round int) MatchType {
	mt, err := Principal(round)
	if err != nil {
		panic(err)
	}
	return mt
}

func ParseMatchType(s string) (MatchType, error) {
	if s == matchTypePreliminary {
		return Preliminary, nil
	}
	if !strings.HasPrefix(s, matchTypePrincipalPrefix) {
		return MatchType{}, fmt.Errorf("%w: %q", ErrInvalidMatchType, s)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, matchTypePrincipalPrefix))
	if err != nil {
		return MatchType{}, fmt.Errorf("%w: %q", ErrInvalidMatchType, s)
	}
	return Principal(n)
}

func (m MatchType) IsPreliminary() bool { return m.round == 0 }

func (m MatchType) IsPrincipal() bool { return m.round > 0 }

// Round returns the main round number, 0 for the preliminary round.
func (m MatchType) Round() int { return m.round }

func (m MatchType) String() string {
	if m.IsPreliminary() {
		return matchTypePreliminary
	}
	return matchTypePrincipalPrefix + strconv.Itoa(m.round)
}

func (m MatchType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MatchType) UnmarshalText(text []byte) error {
	parsed, err := ParseMatchType(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores the match type in its text form.
func (m MatchType) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *MatchType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return m.UnmarshalText([]byte(v))
	case []byte:
		return m.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidMatchType, src)
	}
}
