package model

// Employee employees
type Employee struct {
	EmployeeID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	EmployeeNo   string `gorm:"type:varchar(50);not null"                      json:"employee_no"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Department   string `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	DefaultShift string `gorm:"type:varchar(20);not null;default:''"           json:"default_shift"` // canteen staff: canteen_early | canteen_late
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName table name
func (Employee) TableName() string { return "employees" }
