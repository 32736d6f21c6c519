/*
Package validation provides shared argument and configuration validation
helpers that produce consistent ValidationError values across stageflow
components.

	if err := validation.ValidateNotEmpty("manager", "id", id); err != nil {
		return err
	}
*/
package validation
