package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"milltrack/internal/core/apperror"
	"milltrack/internal/core/entity"
)

// Activity validation rules are CEL expressions over the fields of the
// pending record. They run after structural validation and before any
// stock arithmetic, so a rule can reject a record cheaply.

type ruleKey struct {
	ledger   Type
	activity string
}

type compiledRule struct {
	name    string
	program cel.Program
}

var (
	ruleEnvOnce sync.Once
	ruleEnv     *cel.Env
	ruleEnvErr  error
)

func getRuleEnv() (*cel.Env, error) {
	ruleEnvOnce.Do(func() {
		ruleEnv, ruleEnvErr = cel.NewEnv(
			cel.Variable("quantity", cel.DoubleType),
			cel.Variable("date", cel.TimestampType),
			cel.Variable("expiry_date", cel.TimestampType),
			cel.Variable("batch", cel.StringType),
			cel.Variable("note", cel.StringType),
			cel.Variable("document_number", cel.StringType),
			cel.Variable("activity", cel.StringType),
		)
	})
	return ruleEnv, ruleEnvErr
}

func compileRule(expr string) (cel.Program, error) {
	env, err := getRuleEnv()
	if err != nil {
		return nil, fmt.Errorf("rule environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule must evaluate to bool, got %s", ast.OutputType())
	}
	return env.Program(ast)
}

// ruleActivation maps a record onto the rule variables. A nil expiry date
// is presented as the zero timestamp so rules can test for absence.
func ruleActivation(rec *entity.LedgerRecord) map[string]any {
	expiry := time.Time{}
	if rec.ExpiryDate != nil {
		expiry = *rec.ExpiryDate
	}
	return map[string]any{
		"quantity":        rec.Quantity.Float64(),
		"date":            rec.Date,
		"expiry_date":     expiry,
		"batch":           rec.Batch,
		"note":            rec.Note,
		"document_number": rec.DocumentNumber,
		"activity":        rec.Activity,
	}
}

// EvalRule runs the activity's validation rule against the record, if the
// activity has one. A false result or an evaluation failure rejects the
// record with the rule name attached.
func (r *Registry) EvalRule(ledgerType Type, rec *entity.LedgerRecord) error {
	rule, ok := r.rules[ruleKey{ledgerType, rec.Activity}]
	if !ok {
		return nil
	}

	out, _, err := rule.program.Eval(ruleActivation(rec))
	if err != nil {
		return apperror.NewValidation(fmt.Sprintf("rule %s failed to evaluate", rule.name)).
			WithDetail("rule", rule.name).
			WithCause(err)
	}
	passed, ok := out.Value().(bool)
	if !ok || !passed {
		return apperror.NewValidation(fmt.Sprintf("rule %s rejected the record", rule.name)).
			WithDetail("rule", rule.name).
			WithDetail("activity", rec.Activity)
	}
	return nil
}
