// internal/service/ads/infrastructure/rule/cel_trust_engine.go
package rule

import (
	"context"
	"fmt"

	"souq/internal/service/ads/port"

	"github.com/google/cel-go/cel"
)

// CELTrustAdapter 是 port.TrustEvaluator 的 CEL 实现。
// 规则表达式来自配置中心，例如：
//
//	owner_verified || owner_role == 'operator'
//	owner_verified && account_age_days > 30 && active_ads < 50
//
// 表达式在创建时编译一次，之后每次提交只做求值。
// 这是典型的适配器：把第三方规则引擎适配到我们自己的领域接口。
type CELTrustAdapter struct {
	program cel.Program
}

// NewCELTrustAdapter 编译规则表达式。表达式非法时直接报错，
// 让服务在启动阶段暴露配置问题，而不是在第一次提交时。
func NewCELTrustAdapter(expression string) (*CELTrustAdapter, error) {
	env, err := cel.NewEnv(
		cel.Variable("owner_verified", cel.BoolType),
		cel.Variable("owner_role", cel.StringType),
		cel.Variable("active_ads", cel.IntType),
		cel.Variable("account_age_days", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid trust rule %q: %w", expression, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("trust rule %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL program: %w", err)
	}
	return &CELTrustAdapter{program: program}, nil
}

// Evaluate 实现 port.TrustEvaluator。
func (a *CELTrustAdapter) Evaluate(_ context.Context, facts port.SubmissionFacts) (bool, error) {
	out, _, err := a.program.Eval(map[string]interface{}{
		"owner_verified":   facts.OwnerVerified,
		"owner_role":       facts.OwnerRole,
		"active_ads":       facts.ActiveAds,
		"account_age_days": facts.AccountAgeDays,
	})
	if err != nil {
		return false, fmt.Errorf("trust rule evaluation failed: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected result type from trust rule: %T", out.Value())
	}
	return result, nil
}
