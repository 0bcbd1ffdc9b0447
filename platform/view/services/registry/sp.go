/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"reflect"
	"strings"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

var (
	ServiceNotFound = errors.New("service not found")
	logger          = logging.MustGetLogger("view-sdk.registry")
)

// ServiceProvider is a registry of services looked up by type.
// Interfaces resolve to the first registered service implementing them.
type ServiceProvider struct {
	services   []interface{}
	serviceMap map[reflect.Type]interface{}
	lock       sync.Mutex
}

func New() *ServiceProvider {
	return &ServiceProvider{
		services:   []interface{}{},
		serviceMap: map[reflect.Type]interface{}{},
	}
}

// GetService returns the service of the passed type.
// v is either a reflect.Type or a value of the wanted type.
func (sp *ServiceProvider) GetService(v interface{}) (interface{}, error) {
	typ, ok := v.(reflect.Type)
	if !ok {
		typ = reflect.TypeOf(v)
	}
	if typ == nil {
		return nil, errors.New("nil service type")
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	sp.lock.Lock()
	defer sp.lock.Unlock()
	if service, ok := sp.serviceMap[typ]; ok {
		return service, nil
	}
	for _, service := range sp.services {
		if provides(reflect.TypeOf(service), typ) {
			sp.serviceMap[typ] = service
			return service, nil
		}
	}
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("service [%s/%s] not found in [%s]", typ.PkgPath(), typ.Name(), sp)
	}
	return nil, errors.Wrapf(ServiceNotFound, "service [%s/%s]", typ.PkgPath(), typ.Name())
}

// provides is true when a service of type st can be returned for typ,
// an interface it implements or the struct it points to
func provides(st, typ reflect.Type) bool {
	if typ.Kind() == reflect.Interface {
		return st.Implements(typ)
	}
	return st.Kind() == reflect.Ptr && st.Elem() == typ
}

func (sp *ServiceProvider) RegisterService(service interface{}) error {
	if service == nil {
		return errors.New("cannot register a nil service")
	}
	sp.lock.Lock()
	defer sp.lock.Unlock()

	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("register service [%s]", GetIdentifier(service))
	}
	sp.services = append(sp.services, service)
	return nil
}

func (sp *ServiceProvider) String() string {
	ids := make([]string, 0, len(sp.services))
	for _, service := range sp.services {
		ids = append(ids, GetIdentifier(service))
	}
	return "services [" + strings.Join(ids, ", ") + "]"
}

// GetIdentifier returns the package path and name of the type of the passed value
func GetIdentifier(v interface{}) string {
	t := baseType(v)
	if t == nil {
		return "<nil>"
	}
	return t.PkgPath() + "/" + t.Name()
}

// GetName returns the name of the type of the passed value
func GetName(v interface{}) string {
	t := baseType(v)
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}

func baseType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
