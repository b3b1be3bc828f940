package dataset

import (
	"fmt"
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Dataset is a registered crawl: the handle used to reach its pages and terms.
type Dataset struct {
	id        string
	name      string
	createdAt time.Time
}

// New validates and creates a Dataset. A zero createdAt defaults to now.
func New(id, name string, createdAt time.Time) (Dataset, error) {
	if !idRegex.MatchString(id) {
		return Dataset{}, fmt.Errorf("dataset id %q must be 1-64 alphanumeric, underscore or hyphen characters", id)
	}
	if name == "" {
		name = id
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return Dataset{id: id, name: name, createdAt: createdAt}, nil
}

// Reconstruct creates a Dataset from stored state without validation.
func Reconstruct(id, name string, createdAt time.Time) Dataset {
	return Dataset{id: id, name: name, createdAt: createdAt}
}

// ID returns the dataset handle.
func (d Dataset) ID() string { return d.id }

// Name returns the display name.
func (d Dataset) Name() string { return d.name }

// CreatedAt returns the registration time.
func (d Dataset) CreatedAt() time.Time { return d.createdAt }
