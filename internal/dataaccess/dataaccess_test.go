package dataaccess

import (
	"errors"
	"testing"

	"github.com/kaliklipper/ism-go/internal/ismerr"
)

func TestNormaliseRoundTrip(t *testing.T) {
	// A SQL string containing only "?" markers normalises to itself
	// under the embedded (sqlite) backend, and to "%s" under the networked
	// (mysql) backend, and vice versa.
	q := "SELECT 1 FROM actions WHERE action = ? AND active = ?"
	s := "SELECT 1 FROM actions WHERE action = %s AND active = %s"

	got, err := normalise(q, '?')
	if err != nil || got != q {
		t.Fatalf("sqlite normalise(?) = %q, %v; want %q, nil", got, err, q)
	}

	got, err = normalise(q, 's')
	if err != nil || got != s {
		t.Fatalf("mysql normalise(?) = %q, %v; want %q, nil", got, err, s)
	}

	got, err = normalise(s, 's')
	if err != nil || got != s {
		t.Fatalf("mysql normalise(%%s) = %q, %v; want %q, nil", got, err, s)
	}

	got, err = normalise(s, '?')
	if err != nil || got != q {
		t.Fatalf("sqlite normalise(%%s) = %q, %v; want %q, nil", got, err, q)
	}
}

func TestNormaliseRejectsMissingMarkers(t *testing.T) {
	// PrepareParameterisedStatement("SELECT 1") raises
	// UnrecognisedParameterisationCharacter.
	_, err := normalise("SELECT 1", '?')
	if !errors.Is(err, ismerr.UnrecognisedParamChar) {
		t.Fatalf("normalise(no markers) error = %v, want UnrecognisedParameterisationCharacter", err)
	}
}

func TestNormaliseRejectsMixedMarkers(t *testing.T) {
	_, err := normalise("SELECT 1 WHERE a = ? AND b = %s", '?')
	if !errors.Is(err, ismerr.UnrecognisedParamChar) {
		t.Fatalf("normalise(mixed markers) error = %v, want UnrecognisedParameterisationCharacter", err)
	}
}
