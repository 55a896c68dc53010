package dto

// CreateEmployeeRequest new employee
type CreateEmployeeRequest struct {
	EmployeeNo   string `json:"employee_no"   binding:"required,max=50"`
	Name         string `json:"name"          binding:"required,max=100"`
	Department   string `json:"department"    binding:"max=100"`
	DefaultShift string `json:"default_shift" binding:"omitempty,shift_type"`
}

// UpdateEmployeeRequest partial update
type UpdateEmployeeRequest struct {
	Name         *string `json:"name"          binding:"omitempty,max=100"`
	Department   *string `json:"department"    binding:"omitempty,max=100"`
	DefaultShift *string `json:"default_shift" binding:"omitempty,shift_type"`
	IsActive     *bool   `json:"is_active"`
}

// PageRequest paging query
type PageRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Normalize applies defaults and caps, returns offset and limit
func (p *PageRequest) Normalize() (offset, limit int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
	return (p.Page - 1) * p.PageSize, p.PageSize
}

// EmployeeResponse employee
type EmployeeResponse struct {
	ID           string `json:"id"`
	EmployeeNo   string `json:"employee_no"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	DefaultShift string `json:"default_shift,omitempty"`
	IsActive     bool   `json:"is_active"`
}
