// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package version

import (
	"fmt"
)

// These constants define the application version and follow semantic
// versioning 2.0.0 (http://semver.org/).
const (
	Major uint = 0
	Minor uint = 3
	Patch uint = 0
)

// Build may be set at link time with
// -ldflags "-X github.com/ubilog/ubilog/version.Build=<commit>".
var Build string

// String returns the application version as a properly formed string.
func String() string {
	version := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if Build != "" {
		version = fmt.Sprintf("%s+%s", version, Build)
	}
	return version
}
