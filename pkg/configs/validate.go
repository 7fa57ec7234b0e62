package configs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/certvault/pkg/rule"
)

func init() {
	// global、ip 或 header:<Name>
	_ = rule.RegisterValidation("ratelimit_key", func(fl validator.FieldLevel) bool {
		key := strings.ToLower(fl.Field().String())

		return key == "global" || key == "ip" || (strings.HasPrefix(key, "header:") && len(key) > len("header:"))
	})
}

// ValidateGenerate 校验 generate 命令需要的配置.
func (c *AppConfig) ValidateGenerate() error {
	return validateSections(
		section{"db", &c.DB},
		section{"files", &c.Files},
		section{"generator", &c.Generator},
		section{"log", &c.Log},
		section{"tracing", &c.Tracing},
	)
}

// ValidateServe 校验 serve 命令需要的配置.
func (c *AppConfig) ValidateServe() error {
	return validateSections(
		section{"db", &c.DB},
		section{"files", &c.Files},
		section{"cache", &c.Cache},
		section{"server", &c.Server},
		section{"log", &c.Log},
		section{"rate_limit", &c.RateLimit},
		section{"circuit_breaker", &c.CircuitBreaker},
		section{"tracing", &c.Tracing},
	)
}

type section struct {
	name string
	cfg  any
}

func validateSections(sections ...section) error {
	var errs []error

	for _, s := range sections {
		if err := rule.ValidateStruct(s.cfg); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s config: %s", s.name, describe(err)))
		}
	}

	return errors.Join(errs...)
}

// describe 把 validator 错误整理为稳定的一行描述.
func describe(err error) string {
	fields := rule.Errors(err)
	if len(fields) == 0 {
		return err.Error()
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}

	return strings.Join(parts, "; ")
}
