package ecs

import "errors"

var (
	ErrPoolFull       = errors.New("ecs: pool is at capacity")
	ErrDuplicateOwner = errors.New("ecs: owner already holds a slot")
	ErrUnknownOwner   = errors.New("ecs: owner holds no slot")
	ErrShrink         = errors.New("ecs: pool cannot shrink")
	ErrInvalidEntity  = errors.New("ecs: invalid entity")
)
