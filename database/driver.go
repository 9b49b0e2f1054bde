// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"fmt"
	"sort"
	"sync"
)

var (
	driversMtx sync.RWMutex
	drivers    = make(map[string]*Driver)
)

// RegisterDriver adds a backend database driver to available interfaces.
// ErrDbTypeRegistered will be returned if the database type for the driver has
// already been registered.
func RegisterDriver(driver Driver) error {
	driversMtx.Lock()
	defer driversMtx.Unlock()
	if _, exists := drivers[driver.DbType]; exists {
		str := fmt.Sprintf("driver %q is already registered",
			driver.DbType)
		return makeError(ErrDbTypeRegistered, str, nil)
	}

	drivers[driver.DbType] = &driver
	return nil
}

// SupportedDrivers returns a slice of strings that represent the database
// drivers that have been registered and are therefore supported.
func SupportedDrivers() []string {
	driversMtx.RLock()
	defer driversMtx.RUnlock()
	supportedDBs := make([]string, 0, len(drivers))
	for _, drv := range drivers {
		supportedDBs = append(supportedDBs, drv.DbType)
	}
	sort.Strings(supportedDBs)
	return supportedDBs
}

func lookupDriver(dbType string) (*Driver, error) {
	driversMtx.RLock()
	defer driversMtx.RUnlock()
	drv, exists := drivers[dbType]
	if !exists {
		str := fmt.Sprintf("driver %q is not registered", dbType)
		return nil, makeError(ErrDbUnknownType, str, nil)
	}
	return drv, nil
}

// Create initializes and opens a database for the specified type.  The
// path is passed on to the driver.
//
// ErrDbUnknownType will be returned if the the database type is not registered.
func Create(dbType, path string) (DB, error) {
	drv, err := lookupDriver(dbType)
	if err != nil {
		return nil, err
	}
	return drv.Create(path)
}

// Open opens an existing database for the specified type.
//
// ErrDbUnknownType will be returned if the the database type is not registered.
func Open(dbType, path string) (DB, error) {
	drv, err := lookupDriver(dbType)
	if err != nil {
		return nil, err
	}
	return drv.Open(path)
}

// OpenOrCreate opens the database at path, creating it first when it does
// not exist yet.
func OpenOrCreate(dbType, path string) (DB, error) {
	db, err := Open(dbType, path)
	if err == nil {
		return db, nil
	}
	if !IsErrorCode(err, ErrDbDoesNotExist) {
		return nil, err
	}
	log.Info("Creating block database", "type", dbType, "path", path)
	return Create(dbType, path)
}
