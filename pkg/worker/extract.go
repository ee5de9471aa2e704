// Copyright 2026 Foreman Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package worker

import (
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/foreman-dev/foreman/pkg/errors"
)

// extractor pulls a value out of structured provider output using a
// compiled jq expression. Compilation happens once at worker construction
// so a bad expression is a startup error.
type extractor struct {
	expression string
	code       *gojq.Code
}

func newExtractor(expression string) (*extractor, error) {
	if expression == "" {
		return nil, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, &errors.ConfigError{
			Key:    "extract",
			Reason: fmt.Sprintf("invalid jq expression %q: %v", expression, err),
			Cause:  err,
		}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &errors.ConfigError{
			Key:    "extract",
			Reason: fmt.Sprintf("failed to compile jq expression %q: %v", expression, err),
			Cause:  err,
		}
	}

	return &extractor{expression: expression, code: code}, nil
}

// apply runs the expression and returns the first result. A query that
// produces nothing or errors is a worker-level failure, not a silent nil.
func (e *extractor) apply(input interface{}) (interface{}, error) {
	iter := e.code.Run(input)

	v, ok := iter.Next()
	if !ok {
		return nil, fmt.Errorf("jq expression %q produced no result", e.expression)
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("jq expression %q failed: %w", e.expression, err)
	}
	return v, nil
}
