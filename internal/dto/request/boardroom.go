package request

type CreateBoardroomRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=100"`
	Location  string   `json:"location" validate:"required,max=200"`
	Capacity  int      `json:"capacity" validate:"required,gt=0,max=1000"`
	Amenities []string `json:"amenities" validate:"omitempty,dive,required,max=50"`
}

// UpdateBoardroomRequest applies only the fields that are set.
type UpdateBoardroomRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Location  *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	Capacity  *int     `json:"capacity,omitempty" validate:"omitempty,gt=0,max=1000"`
	Amenities []string `json:"amenities,omitempty" validate:"omitempty,dive,required,max=50"`
	IsActive  *bool    `json:"is_active,omitempty"`
}

type BoardroomFilter struct {
	MinCapacity int
	PaginatedRequest
}
