package service

import (
	"admin-service/internal/model"
	"admin-service/internal/store"
	"context"
)

// UserService lists platform users
type UserService struct {
	users store.UserStore
}

func NewUserService(users store.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context, page, perPage int) (*Paged[model.User], error) {
	p := NewPage(page, perPage)
	users, total, err := s.users.ListUsers(ctx, p)
	if err != nil {
		return nil, err
	}
	return newPaged(users, total, p), nil
}

// RoleService lists roles with their permissions
type RoleService struct {
	roles store.RoleStore
}

func NewRoleService(roles store.RoleStore) *RoleService {
	return &RoleService{roles: roles}
}

func (s *RoleService) List(ctx context.Context) ([]model.Role, error) {
	return s.roles.ListRoles(ctx)
}

// PlanService lists the plans offered to tenants
type PlanService struct {
	plans store.PlanStore
}

func NewPlanService(plans store.PlanStore) *PlanService {
	return &PlanService{plans: plans}
}

func (s *PlanService) ListActive(ctx context.Context) ([]model.SubscriptionPlan, error) {
	return s.plans.ListActivePlans(ctx)
}
