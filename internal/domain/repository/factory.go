package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Rounds() RoundRepository
	Participations() ParticipationRepository
	Orders() OrderRepository
	Products() ProductRepository
	Ledger() LedgerRepository
	Notifications() NotificationRepository
	Audit() AuditRepository
	Followups() FollowupRepository
}
