package domain

var Tables = []interface{}{
	&Product{},
	&AuditLog{},
}
