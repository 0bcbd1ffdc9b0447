/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"reflect"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("view-sdk.view-provider")

// ViewProvider creates views by name, out of their registered factories
type ViewProvider struct {
	factoriesSync sync.RWMutex
	factories     map[string]driver.Factory
}

func NewViewProvider() *ViewProvider {
	return &ViewProvider{factories: map[string]driver.Factory{}}
}

func (cm *ViewProvider) RegisterFactory(id string, factory driver.Factory) error {
	if factory == nil {
		return errors.Errorf("nil factory for id [%s]", id)
	}
	logger.Debugf("register view factory [%s,%T]", id, factory)
	cm.factoriesSync.Lock()
	defer cm.factoriesSync.Unlock()
	if _, ok := cm.factories[id]; ok {
		return errors.Errorf("factory for id [%s] already registered", id)
	}
	cm.factories[id] = factory
	return nil
}

// NewView returns the view built by the factory registered under id
func (cm *ViewProvider) NewView(id string, in []byte) (f view.View, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("new view triggered panic: %s\n%s\n", r, debug.Stack())
			err = errors.Errorf("failed creating view [%s]", r)
		}
	}()

	cm.factoriesSync.RLock()
	factory, ok := cm.factories[id]
	cm.factoriesSync.RUnlock()
	if !ok {
		return nil, errors.Errorf("no factory found for id [%s]", id)
	}
	return factory.NewView(in)
}

// Factories returns the ids of the registered factories, sorted
func (cm *ViewProvider) Factories() []string {
	cm.factoriesSync.RLock()
	defer cm.factoriesSync.RUnlock()
	res := make([]string, 0, len(cm.factories))
	for id := range cm.factories {
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}

var viewProviderType = reflect.TypeOf((*ViewProvider)(nil))

// GetViewProvider returns the view provider registered in sp
func GetViewProvider(sp driver.ServiceProvider) (*ViewProvider, error) {
	s, err := sp.GetService(viewProviderType)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get view provider")
	}
	return s.(*ViewProvider), nil
}
