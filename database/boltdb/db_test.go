package boltdb

import (
	"testing"

	"github.com/ubilog/ubilog/database/dbtest"
)

func TestDriver(t *testing.T) {
	dbtest.RunDriverTests(t, dbType)
}
