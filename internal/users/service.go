package users

import (
	"context"
	"errors"
	"fmt"
)

// Enroll finds the user owning in.MobileNumber or creates a passwordless
// account, then makes sure the user holds role. A user already holding a
// different role yields ErrRoleConflict. The boolean reports whether the
// account was created.
//
// Callers pass the repository bound to their transaction so the user and
// the record referencing it commit together.
func Enroll(ctx context.Context, repo Repository, in NewUser, role Role) (*User, bool, error) {
	in.MobileNumber = NormalizeMobile(in.MobileNumber)
	user, err := repo.FindByMobile(ctx, in.MobileNumber)
	switch {
	case err == nil:
		if user.RoleIs(role) {
			return user, false, nil
		}
		if user.HasRole() {
			return nil, false, fmt.Errorf("%w: %s", ErrRoleConflict, *user.Role)
		}
		user, err = repo.AssignRole(ctx, user.ID, role)
		if err != nil {
			if errors.Is(err, ErrRoleAlreadySet) {
				return nil, false, ErrRoleConflict
			}
			return nil, false, fmt.Errorf("assign role: %w", err)
		}
		return user, false, nil
	case errors.Is(err, ErrNotFound):
	default:
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	if in.Username == "" {
		in.Username = in.MobileNumber
	}
	if in.City != nil {
		city := NormalizeCity(*in.City)
		in.City = &city
	}
	in.Role = &role
	in.PasswordHash = ""
	user, err = repo.Create(ctx, in)
	if err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}
