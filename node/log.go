// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	l "github.com/ubilog/ubilog/log"
)

var log l.Logger

func init() {
	UseLogger(l.New(l.Ctx{"module": "node"}))
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger l.Logger) {
	log = logger
}
