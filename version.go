package roverlink

import "fmt"

// Host API version. The firmware reports its own triple in response to the
// `n` command; Connect compares the two. A major mismatch in either
// direction is fatal, a minor mismatch is a warning, a subminor mismatch is
// silent.
const (
	VersionMajor    = 2
	VersionMinor    = 3
	VersionSubminor = 1
)

// Version is a firmware or API version triple.
type Version struct {
	Major    int
	Minor    int
	Subminor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Subminor)
}

// APIVersion returns the version of this driver's protocol support.
func APIVersion() Version {
	return Version{Major: VersionMajor, Minor: VersionMinor, Subminor: VersionSubminor}
}
