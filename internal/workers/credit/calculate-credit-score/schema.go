// internal/workers/credit/calculate-credit-score/schema.go
package calculatecreditscore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// variablesSchema checks the shape of the job variables. Enum membership and
// ranges are left to profile validation.
const variablesSchema = `{
  "type": "object",
  "required": ["applicationId", "applicantProfile"],
  "properties": {
    "applicationId": {"type": "string", "minLength": 1},
    "applicantProfile": {
      "type": "object",
      "required": ["incomeSource", "monthlyIncome", "incomeStability", "requestedAmount", "loanType"],
      "properties": {
        "age": {"type": "integer"},
        "dependents": {"type": "integer"},
        "incomeSource": {"type": "string"},
        "monthlyIncome": {"type": "number"},
        "incomeStability": {"type": "integer"},
        "yearsEmployed": {"type": "number"},
        "yearsInBusiness": {"type": "number"},
        "businessProfile": {"type": ["object", "null"]},
        "requestedAmount": {"type": "number"},
        "existingLoans": {"type": "number"},
        "loanType": {"type": "string"},
        "isBusinessLoanForIndividual": {"type": "boolean"},
        "previousLoans": {"type": "integer"},
        "previousRepaymentHistory": {"type": "string"},
        "creditBureauScore": {"type": ["integer", "null"]},
        "hasCollateral": {"type": "boolean"},
        "collateralValue": {"type": "number"},
        "hasGuarantors": {"type": "boolean"},
        "guarantorCount": {"type": "integer"},
        "educationLevel": {"type": "string"},
        "yearsAtResidence": {"type": "number"},
        "yearsWithPhoneNumber": {"type": "number"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(variablesSchema))
	})
	return compiledSchema, schemaErr
}

// validateVariables reports every schema violation in one error.
func validateVariables(variables string) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile variables schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", errSchemaViolation, strings.Join(errs, "; "))
	}

	return nil
}
