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

import "sync"

// Taggable is implemented by everything that carries tags: instruments,
// registries and custom gauges.
type Taggable interface {
	// Tags returns a copy of the tags.
	Tags() map[string]string

	// Tag returns the value of a single tag.
	Tag(name string) (string, bool)

	// SetTag adds or replaces a tag.
	SetTag(name, value string)

	// RemoveTag removes a tag, it is a no-op if the tag is absent.
	RemoveTag(name string)
}

// TagSet is a concurrency safe set of tags. The zero value is an empty set
// and it is meant to be embedded by types implementing Metric.
type TagSet struct {
	mu   sync.RWMutex
	tags map[string]string
}

var _ Taggable = (*TagSet)(nil)

// Tags returns a copy of the tags, mutating it does not affect the set.
func (s *TagSet) Tags() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyStringMap(s.tags)
}

// Tag returns the value for name.
func (s *TagSet) Tag(name string) (string, bool) {
	s.mu.RLock()
	v, ok := s.tags[name]
	s.mu.RUnlock()
	return v, ok
}

// SetTag sets name to value.
func (s *TagSet) SetTag(name, value string) {
	s.mu.Lock()
	if s.tags == nil {
		s.tags = make(map[string]string)
	}
	s.tags[name] = value
	s.mu.Unlock()
}

// RemoveTag removes name from the set.
func (s *TagSet) RemoveTag(name string) {
	s.mu.Lock()
	delete(s.tags, name)
	s.mu.Unlock()
}

func (s *TagSet) setTags(tags map[string]string) {
	for k, v := range tags {
		s.SetTag(k, v)
	}
}

// MergeTags merges tag layers into a new map, tags from later layers
// override values from earlier ones. The result never aliases an input.
func MergeTags(layers ...map[string]string) map[string]string {
	size := 0
	for _, l := range layers {
		size += len(l)
	}
	result := make(map[string]string, size)
	for _, l := range layers {
		for k, v := range l {
			result[k] = v
		}
	}
	return result
}

func copyStringMap(stringMap map[string]string) map[string]string {
	result := make(map[string]string, len(stringMap))
	for k, v := range stringMap {
		result[k] = v
	}
	return result
}
