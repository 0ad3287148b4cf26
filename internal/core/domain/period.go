package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Term is one of the three school terms of an academic session.
type Term string

const (
	FirstTerm  Term = "First Term"
	SecondTerm Term = "Second Term"
	ThirdTerm  Term = "Third Term"
)

// Terms lists the terms in calendar order.
var Terms = []Term{FirstTerm, SecondTerm, ThirdTerm}

var sessionPattern = regexp.MustCompile(`^(\d{4})/(\d{4})$`)

// Period scopes an entity to an academic session and term, e.g. {"2023/2024", "First Term"}.
type Period struct {
	AcademicSession string `json:"academicSession"`
	Term            Term   `json:"term"`
}

func (p Period) String() string {
	return p.AcademicSession + " " + string(p.Term)
}

// Validate checks the session format ("YYYY/YYYY", consecutive years) and the term name.
func (p Period) Validate() error {
	if err := ValidateSession(p.AcademicSession); err != nil {
		return err
	}
	if !p.Term.IsValid() {
		return fmt.Errorf("term %q must be one of First Term, Second Term, Third Term", p.Term)
	}
	return nil
}

// IsValid reports whether t is a known term.
func (t Term) IsValid() bool {
	for _, known := range Terms {
		if t == known {
			return true
		}
	}
	return false
}

// ValidateSession checks an academic session string such as "2023/2024".
func ValidateSession(session string) error {
	m := sessionPattern.FindStringSubmatch(session)
	if m == nil {
		return fmt.Errorf("academic session %q must look like 2023/2024", session)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end != start+1 {
		return fmt.Errorf("academic session %q must span consecutive years", session)
	}
	return nil
}
