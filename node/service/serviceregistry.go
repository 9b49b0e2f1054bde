// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// IService is a long running component of the node.
type IService interface {
	// Start is called after all services have been constructed to spawn
	// any goroutines required by the service.
	Start() error

	// Stop terminates all goroutines belonging to the service, blocking
	// until they are all terminated.
	Stop() error
}

// ServiceRegistry starts services in registration order and stops them in
// reverse.
type ServiceRegistry struct {
	services     map[reflect.Type]IService
	serviceTypes []reflect.Type
	running      int
}

func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[reflect.Type]IService),
	}
}

// StartAll starts every service. When one fails, the ones already started
// are stopped again and the error is returned.
func (s *ServiceRegistry) StartAll() error {
	log.Debug(fmt.Sprintf("Starting %d services: %v", len(s.serviceTypes), s.serviceTypes))
	for _, kind := range s.serviceTypes {
		log.Debug(fmt.Sprintf("Starting service type %v", kind))
		if err := s.services[kind].Start(); err != nil {
			s.StopAll()
			return errors.Wrapf(err, "start %v", kind)
		}
		s.running++
	}
	return nil
}

// StopAll stops the running services, last started first.
func (s *ServiceRegistry) StopAll() error {
	var failed []string
	for i := s.running - 1; i >= 0; i-- {
		kind := s.serviceTypes[i]
		if err := s.services[kind].Stop(); err != nil {
			log.Error(fmt.Sprintf("Could not stop the following service: %v, %v", kind, err))
			failed = append(failed, kind.String())
		}
	}
	s.running = 0
	if len(failed) > 0 {
		return errors.Errorf("failed to stop %s", strings.Join(failed, ", "))
	}
	return nil
}

// RegisterService adds a service. Only one service per type is allowed.
func (s *ServiceRegistry) RegisterService(service IService) error {
	kind := reflect.TypeOf(service)
	if _, exists := s.services[kind]; exists {
		return errors.Errorf("service already exists: %v", kind)
	}
	s.services[kind] = service
	s.serviceTypes = append(s.serviceTypes, kind)
	return nil
}

// FetchService sets the value pointed to by service to the registered
// service of the same type.
func (s *ServiceRegistry) FetchService(service interface{}) error {
	if reflect.TypeOf(service).Kind() != reflect.Ptr {
		return errors.Errorf("input must be of pointer type, received value type instead: %T", service)
	}
	element := reflect.ValueOf(service).Elem()
	if running, ok := s.services[element.Type()]; ok {
		element.Set(reflect.ValueOf(running))
		return nil
	}
	return errors.Errorf("unknown service: %T", service)
}

// Len returns the number of registered services.
func (s *ServiceRegistry) Len() int {
	return len(s.serviceTypes)
}
