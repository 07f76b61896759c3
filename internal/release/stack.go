// Package release tracks acquired resources so they are released in reverse
// order on every exit path, including partial initialization failures.
package release

import (
	"github.com/cockroachdb/errors"
)

type entry struct {
	name string
	fn   func() error
}

// Stack is a LIFO of release functions. The zero value is ready to use.
// A Stack is not safe for concurrent use.
type Stack struct {
	entries []entry
}

// Push registers fn to run when the stack is released.
func (s *Stack) Push(name string, fn func() error) {
	s.entries = append(s.entries, entry{name: name, fn: fn})
}

// PushFunc registers a release step that cannot fail, such as a Vulkan
// Destroy call.
func (s *Stack) PushFunc(name string, fn func()) {
	s.Push(name, func() error {
		fn()
		return nil
	})
}

func (s *Stack) Len() int {
	return len(s.entries)
}

// Names lists pending release steps in the order they would run.
func (s *Stack) Names() []string {
	names := make([]string, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		names = append(names, s.entries[i].name)
	}
	return names
}

// Release runs every registered function newest-first and empties the
// stack. Failures do not stop the remaining steps; they are combined into
// the returned error. Releasing an empty stack is a no-op.
func (s *Stack) Release() error {
	var err error
	for len(s.entries) > 0 {
		last := s.entries[len(s.entries)-1]
		s.entries = s.entries[:len(s.entries)-1]

		if releaseErr := last.fn(); releaseErr != nil {
			err = errors.CombineErrors(err, errors.Wrapf(releaseErr, "release %s", last.name))
		}
	}

	return err
}
