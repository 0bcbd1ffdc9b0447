/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	viperutil "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/config/viper"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// CmdRoot is the name of the configuration file and the prefix of the environment overrides
	CmdRoot = "iou"
	// PathEnv overrides the folder the configuration file is searched in
	PathEnv = "IOU_CFG_PATH"
)

var logger = logging.MustGetLogger("view-sdk.config")

// Provider gives access to the node configuration.
// Every key can be overridden by an environment variable, IOU_WEB_ADDRESS sets web.address.
type Provider struct {
	confPath string
	Backend  *viper.Viper
}

// NewProvider loads iou.yaml from the passed folder, or the passed file if it points to one
func NewProvider(confPath string) (*Provider, error) {
	p := &Provider{confPath: confPath}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProvider returns an instance of the config service.
// It panics, if no instance is found.
func GetProvider(sp driver.ServiceProvider) *Provider {
	s, err := sp.GetService(reflect.TypeOf((*Provider)(nil)))
	if err != nil {
		panic(err)
	}
	return s.(*Provider)
}

func (p *Provider) GetDuration(key string) time.Duration {
	return p.Backend.GetDuration(key)
}

func (p *Provider) GetBool(key string) bool {
	return p.Backend.GetBool(key)
}

func (p *Provider) GetInt(key string) int {
	return p.Backend.GetInt(key)
}

func (p *Provider) GetString(key string) string {
	return p.Backend.GetString(key)
}

func (p *Provider) GetStringSlice(key string) []string {
	return p.Backend.GetStringSlice(key)
}

func (p *Provider) IsSet(key string) bool {
	return p.Backend.IsSet(key)
}

func (p *Provider) UnmarshalKey(key string, rawVal interface{}) error {
	return viperutil.EnhancedExactUnmarshal(p.Backend, key, rawVal)
}

// GetPath returns the path stored under the passed key, relative paths are resolved against the config file folder
func (p *Provider) GetPath(key string) string {
	return p.TranslatePath(p.Backend.GetString(key))
}

func (p *Provider) TranslatePath(path string) string {
	if path == "" {
		return ""
	}
	return TranslatePath(filepath.Dir(p.Backend.ConfigFileUsed()), path)
}

func (p *Provider) ConfigFileUsed() string {
	return p.Backend.ConfigFileUsed()
}

func (p *Provider) load() error {
	p.Backend = viper.New()
	p.Backend.SetEnvPrefix(strings.ToUpper(CmdRoot))
	p.Backend.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	p.Backend.AutomaticEnv()

	if err := p.initViper(); err != nil {
		return err
	}
	if err := p.Backend.ReadInConfig(); err != nil {
		return errors.WithMessagef(err, "error when reading %s config file", CmdRoot)
	}
	if err := p.substituteEnv(); err != nil {
		return err
	}
	logging.Init(logging.Config{
		Format:  p.Backend.GetString("logging.format"),
		LogSpec: p.Backend.GetString("logging.spec"),
	})
	logger.Infof("configuration loaded from [%s]", p.Backend.ConfigFileUsed())
	return nil
}

// substituteEnv applies the environment overrides to nested keys,
// viper does not do that for values read through UnmarshalKey.
func (p *Provider) substituteEnv() error {
	prefix := strings.ToUpper(CmdRoot) + "_"
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, prefix) || strings.HasPrefix(e, PathEnv+"=") {
			continue
		}
		env := strings.SplitN(e, "=", 2)
		if len(env) != 2 || len(env[1]) == 0 {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(env[0], prefix), "_", "."))
		keys := strings.Split(key, ".")
		if len(keys) < 2 {
			p.Backend.Set(key, env[1])
			continue
		}
		if len(p.Backend.GetStringMap(key)) > 0 {
			logger.Warnf("skipping [%s]: cannot override maps", env[0])
			continue
		}
		root := p.Backend.GetStringMap(keys[0])
		if err := setDeepValue(root, keys, env[1]); err != nil {
			// the parent does not exist yet
			p.Backend.Set(key, env[1])
			continue
		}
		p.Backend.Set(keys[0], root)
		logger.Debugf("applying [%s]", env[0])
	}
	return nil
}

func setDeepValue(m map[string]any, keys []string, value any) error {
	current := m
	for i := 1; i < len(keys)-1; i++ {
		next, ok := current[keys[i]].(map[string]any)
		if !ok {
			return errors.Errorf("expected map at key [%s]", keys[i])
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
	return nil
}

func (p *Provider) initViper() error {
	p.Backend.SetConfigName(CmdRoot)

	if fi, err := os.Stat(p.confPath); err == nil && !fi.IsDir() {
		p.Backend.SetConfigFile(p.confPath)
		return nil
	}
	if len(p.confPath) != 0 {
		p.Backend.AddConfigPath(p.confPath)
	}
	if altPath := os.Getenv(PathEnv); altPath != "" {
		if !dirExists(altPath) {
			return errors.Errorf("%s %s does not exist", PathEnv, altPath)
		}
		p.Backend.AddConfigPath(altPath)
	}
	p.Backend.AddConfigPath("./")
	return nil
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.IsDir()
}

func TranslatePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
