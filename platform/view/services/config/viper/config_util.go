/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package viperutil

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// bracketedListHook turns "[a, b]", as set through environment variables, into []string{"a", "b"}
func bracketedListHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return data, nil
	}
	items := strings.Split(strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]"), ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); len(item) != 0 {
			out = append(out, item)
		}
	}
	return out, nil
}

// decimalHook decodes amounts without going through float64 when they are quoted
func decimalHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, errors.Wrapf(err, "invalid decimal [%s]", v)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	}
	return data, nil
}

// EnhancedExactUnmarshal decodes the value under key into output, a pointer,
// with support for durations, decimals and bracketed lists
func EnhancedExactUnmarshal(v *viper.Viper, key string, output interface{}) error {
	if t := reflect.TypeOf(output); t == nil || t.Kind() != reflect.Ptr {
		return errors.Errorf("cannot unmarshal [%s] into a non pointer", key)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			decimalHook,
			bracketedListHook,
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(v.Get(key))
}
