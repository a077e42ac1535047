package models

// All lists every table for AutoMigrate, parents first.
func All() []any {
	return []any{
		&Branch{},
		&User{},
		&OpeningBalance{},
		&Receipt{},
		&Disbursement{},
		&CashMatching{},
		&CashDelivery{},
		&CashCollection{},
		&BankTransfer{},
		&Notification{},
		&AuditLog{},
		&DocumentCounter{},
	}
}
