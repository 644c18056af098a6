package trigger

import "github.com/ctc-oss/foreman/pkg/types"

// Condition is the set of criteria a SourceFile must satisfy to start a
// recipe. Every non-empty clause must hold; an empty or unset clause is
// vacuously satisfied.
type Condition struct {
	// MediaType, if set, must equal the source file's media type exactly.
	MediaType string

	// DataTypes, if non-empty, must all be present on the source file.
	DataTypes map[string]bool

	// AnyDataTypes, if non-empty, requires at least one to be present.
	AnyDataTypes map[string]bool

	// NotDataTypes, if non-empty, must all be absent from the source file.
	NotDataTypes map[string]bool
}

// New builds a Condition. Any of the data-type sets may be nil or empty
// to skip that clause.
func New(mediaType string, dataTypes, anyDataTypes, notDataTypes map[string]bool) *Condition {
	return &Condition{
		MediaType:    mediaType,
		DataTypes:    dataTypes,
		AnyDataTypes: anyDataTypes,
		NotDataTypes: notDataTypes,
	}
}

// IsConditionMet reports whether source satisfies every configured
// clause of the condition.
func (c *Condition) IsConditionMet(source *types.SourceFile) bool {
	if c.MediaType != "" && source.MediaType != c.MediaType {
		return false
	}

	for tag := range c.DataTypes {
		if !source.HasTag(tag) {
			return false
		}
	}

	if len(c.AnyDataTypes) > 0 {
		matched := false
		for tag := range c.AnyDataTypes {
			if source.HasTag(tag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for tag := range c.NotDataTypes {
		if source.HasTag(tag) {
			return false
		}
	}

	return true
}
