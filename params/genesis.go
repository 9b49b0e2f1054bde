// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package params

import (
	"github.com/ubilog/ubilog/common/hash"
	"github.com/ubilog/ubilog/core/types"
)

// genesisBlock is shared by every network: the all-zero block whose hash is
// the zero hash.
var genesisBlock = types.Block{}

var genesisHash = hash.ZeroHash
