package contract

// PolicyProfile declares allow/deny glob patterns for tools, filesystem
// paths, and network destinations. All fields are pattern lists compiled by
// the policy package; the profile itself is pure data.
type PolicyProfile struct {
	AllowedTools        []string
	DisallowedTools     []string
	DenyRead            []string
	DenyWrite           []string
	AllowNetwork        []string
	DenyNetwork         []string
	RequireApprovalFor  []string
}
