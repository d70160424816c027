package providers

import "github.com/spf13/afero"

// NewFsProvider supplies the filesystem every storage component goes
// through. Tests substitute an in-memory fs for it.
func NewFsProvider() afero.Fs {
	return afero.NewOsFs()
}
