package display

import "errors"

type multi []Screen

// Multi mirrors every call to all screens. Show reports every failure.
func Multi(screens ...Screen) Screen {
	return multi(screens)
}

func (m multi) Clear() {
	for _, s := range m {
		s.Clear()
	}
}

func (m multi) Text(s string, x, y int) {
	for _, sc := range m {
		sc.Text(s, x, y)
	}
}

func (m multi) Show() error {
	var errs []error
	for _, s := range m {
		if err := s.Show(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
