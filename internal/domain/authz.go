package domain

// CanViewAudit reports whether the user may read the audit. Admins see
// everything; auditors only their own visits.
func CanViewAudit(uc *UserContext, a *Audit) bool {
	if uc == nil {
		return false
	}
	return uc.Role == RoleAdmin || a.AuditorID == uc.UserID
}

// CanActOnAudit reports whether the user may mutate the audit (save
// responses, submit, delete). Same gate as viewing: a two-value role model.
func CanActOnAudit(uc *UserContext, a *Audit) bool {
	return CanViewAudit(uc, a)
}
