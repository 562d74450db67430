// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package metrics

import "strings"

var (
	// DefaultReplacementCharacter is the default character used for
	// replacements.
	DefaultReplacementCharacter = '_'

	// AlphanumericRange is the range of alphanumeric characters.
	AlphanumericRange = []SanitiseRange{
		{'a', 'z'},
		{'A', 'Z'},
		{'0', '9'},
	}

	// UnderscoreCharacters is a slice holding the underscore character.
	UnderscoreCharacters = []rune{'_'}

	// UnderscoreDashCharacters is a slice of underscore, and
	// dash characters.
	UnderscoreDashCharacters = []rune{'-', '_'}

	// UnderscoreDashDotCharacters is a slice of underscore,
	// dash, and dot characters.
	UnderscoreDashDotCharacters = []rune{'.', '-', '_'}
)

// SanitiseFn returns a sanitised version of the input string.
type SanitiseFn func(string) string

// SanitiseRange is a range of characters (inclusive on both ends).
type SanitiseRange [2]rune

// ValidCharacters is a collection of valid characters.
type ValidCharacters struct {
	Ranges     []SanitiseRange
	Characters []rune
}

// SanitiseOptions are the set of configurable options for sanitisation.
type SanitiseOptions struct {
	ValidNameCharacters  ValidCharacters
	ValidKeyCharacters   ValidCharacters
	ValidValueCharacters ValidCharacters
	ReplacementCharacter rune
}

// Sanitiser sanitises the provided input based on the function called.
type Sanitiser interface {
	// Name sanitises the provided `name` string.
	Name(n string) string

	// Key sanitises the provided `key` string.
	Key(k string) string

	// Value sanitises the provided `value` string.
	Value(v string) string

	// Tags returns a sanitised copy of tags. Keys colliding after
	// sanitisation keep one of their values.
	Tags(tags map[string]string) map[string]string
}

// NewSanitiser returns a new sanitiser based on provided options
func NewSanitiser(opts SanitiseOptions) Sanitiser {
	rep := opts.ReplacementCharacter
	if rep == 0 {
		rep = DefaultReplacementCharacter
	}
	return &sanitiser{
		nameFn:  opts.ValidNameCharacters.sanitiseFn(rep),
		keyFn:   opts.ValidKeyCharacters.sanitiseFn(rep),
		valueFn: opts.ValidValueCharacters.sanitiseFn(rep),
	}
}

// NoOpSanitizeFn returns the input un-touched.
func NoOpSanitizeFn(v string) string { return v }

// NewNoOpSanitiser returns a sanitizer which returns all inputs un-touched.
func NewNoOpSanitiser() Sanitiser {
	return &sanitiser{
		nameFn:  NoOpSanitizeFn,
		keyFn:   NoOpSanitizeFn,
		valueFn: NoOpSanitizeFn,
	}
}

type sanitiser struct {
	nameFn  SanitiseFn
	keyFn   SanitiseFn
	valueFn SanitiseFn
}

func (s *sanitiser) Name(n string) string {
	return s.nameFn(n)
}

func (s *sanitiser) Key(k string) string {
	return s.keyFn(k)
}

func (s *sanitiser) Value(v string) string {
	return s.valueFn(v)
}

func (s *sanitiser) Tags(tags map[string]string) map[string]string {
	result := make(map[string]string, len(tags))
	for k, v := range tags {
		result[s.keyFn(k)] = s.valueFn(v)
	}
	return result
}

func (c ValidCharacters) valid(ch rune) bool {
	for _, r := range c.Ranges {
		if ch >= r[0] && ch <= r[1] {
			return true
		}
	}
	for _, r := range c.Characters {
		if ch == r {
			return true
		}
	}
	return false
}

func (c ValidCharacters) sanitiseFn(repChar rune) SanitiseFn {
	return func(value string) string {
		// return input un-touched when every character is valid
		if strings.IndexFunc(value, func(ch rune) bool { return !c.valid(ch) }) < 0 {
			return value
		}
		return strings.Map(func(ch rune) rune {
			if c.valid(ch) {
				return ch
			}
			return repChar
		}, value)
	}
}
