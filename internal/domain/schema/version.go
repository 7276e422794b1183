package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/formvault/backend/internal/domain/shared"
)

// DraftSentinel marks a version that has been created but not yet released.
// Queries for "latest released" exclude any version whose Released timestamp
// still equals the sentinel.
var DraftSentinel = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Version identifies one schema version of a form type.
// Ordering is lexicographic on (major, minor, patch).
type Version struct {
	Major      uint      `json:"major" gorm:"not null;uniqueIndex:idx_form_schemas_version,priority:2"`
	Minor      uint      `json:"minor" gorm:"not null;uniqueIndex:idx_form_schemas_version,priority:3"`
	Patch      uint      `json:"patch" gorm:"not null;uniqueIndex:idx_form_schemas_version,priority:4"`
	Released   time.Time `json:"released" gorm:"not null;index:idx_form_schemas_released"`
	Deprecated bool      `json:"deprecated" gorm:"not null;default:false"`
}

// NewVersion creates a version with the given triple and the draft sentinel
// as its release timestamp
func NewVersion(major, minor, patch uint) Version {
	return Version{
		Major:    major,
		Minor:    minor,
		Patch:    patch,
		Released: DraftSentinel,
	}
}

// InitialVersion is the version assigned to the first schema of a form type
func InitialVersion() Version {
	return NewVersion(1, 0, 0)
}

// ParseVersion parses a "major.minor.patch" string
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, shared.NewDomainError("INVALID_VERSION", fmt.Sprintf("Invalid version string %q", s))
	}

	nums := make([]uint, 3)
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return Version{}, shared.NewDomainError("INVALID_VERSION", fmt.Sprintf("Invalid version string %q", s))
		}
		nums[i] = uint(n)
	}

	return NewVersion(nums[0], nums[1], nums[2]), nil
}

// String returns the "major.minor.patch" representation
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 comparing the version triples lexicographically
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return compareUint(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return compareUint(v.Minor, other.Minor)
	}
	return compareUint(v.Patch, other.Patch)
}

// Less reports whether v orders before other
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether the version triples are identical
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// IsDraft reports whether the version has not been released yet
func (v Version) IsDraft() bool {
	return v.Released.Equal(DraftSentinel)
}

// NextMinor returns the next minor version with the patch reset to zero
func (v Version) NextMinor() Version {
	return NewVersion(v.Major, v.Minor+1, 0)
}

// NextMajor returns the next major version. Major bumps are explicit: they
// come from the breaking-changes flag on strategy creation, never from
// schema creation itself.
func (v Version) NextMajor() Version {
	return NewVersion(v.Major+1, 0, 0)
}

func compareUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
