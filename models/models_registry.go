package models

// All returns pointers to every model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Property{},
		&Unit{},
		&Tenant{},
		&Charge{},
		&Payment{},
		&PaymentAllocation{},
		&ExpenseCategory{},
		&Expense{},
		&UserMigration{},
	}
}
