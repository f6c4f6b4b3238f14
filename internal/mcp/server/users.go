// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ciscops/cml-mcp-gateway/internal/gateway"
)

// registerUserTools registers user and group management tools. Every
// mutating operation is gated on the caller being a CML admin, resolved via
// the leased Client's IsAdmin check (cached in stdio mode, resolved afresh
// on every call in http mode).
func (s *Server) registerUserTools() {
	s.registerTool(
		mcp.NewTool("cml_list_users",
			mcp.WithDescription("List CML user accounts."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				var users []string
				if err := client.Get(ctx, "/users", &users); err != nil {
					return nil, err
				}
				return users, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_show_user",
			mcp.WithDescription("Show details for one CML user account."),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("The user's UUID.")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				userID, err := stringArg(input, "user_id")
				if err != nil {
					return nil, err
				}
				var user any
				if err := client.Get(ctx, fmt.Sprintf("/users/%s", userID), &user); err != nil {
					return nil, err
				}
				return user, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_create_user",
			mcp.WithDescription("Create a CML user account. Requires admin privileges."),
			mcp.WithString("username", mcp.Required(), mcp.Description("New account's username.")),
			mcp.WithString("password", mcp.Required(), mcp.Description("New account's password.")),
			mcp.WithBoolean("admin", mcp.Description("Whether the new account is an administrator.")),
			mcp.WithDestructiveHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will create a new CML user account.",
			Handler: requireAdmin(func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				username, err := stringArg(input, "username")
				if err != nil {
					return nil, err
				}
				password, err := stringArg(input, "password")
				if err != nil {
					return nil, err
				}
				body := map[string]any{
					"username": username,
					"password": password,
					"admin":    optionalBoolArg(input, "admin", false),
				}
				var user any
				if err := client.Post(ctx, "/users", body, &user); err != nil {
					return nil, err
				}
				return user, nil
			}),
		},
	)

	s.registerTool(
		mcp.NewTool("cml_delete_user",
			mcp.WithDescription("Delete a CML user account. Requires admin privileges."),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("The user's UUID.")),
			mcp.WithDestructiveHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will permanently delete the user account.",
			Handler: requireAdmin(func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				userID, err := stringArg(input, "user_id")
				if err != nil {
					return nil, err
				}
				if err := client.Delete(ctx, fmt.Sprintf("/users/%s", userID), nil); err != nil {
					return nil, err
				}
				return map[string]string{"user_id": userID, "state": "deleted"}, nil
			}),
		},
	)

	s.registerTool(
		mcp.NewTool("cml_list_groups",
			mcp.WithDescription("List CML groups."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Handler: func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				var groups []string
				if err := client.Get(ctx, "/groups", &groups); err != nil {
					return nil, err
				}
				return groups, nil
			},
		},
	)

	s.registerTool(
		mcp.NewTool("cml_create_group",
			mcp.WithDescription("Create a CML group. Requires admin privileges."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Group name.")),
			mcp.WithString("description", mcp.Description("Group description.")),
			mcp.WithDestructiveHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will create a new CML group.",
			Handler: requireAdmin(func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				name, err := stringArg(input, "name")
				if err != nil {
					return nil, err
				}
				body := map[string]any{
					"name":        name,
					"description": optionalStringArg(input, "description"),
				}
				var group any
				if err := client.Post(ctx, "/groups", body, &group); err != nil {
					return nil, err
				}
				return group, nil
			}),
		},
	)

	s.registerTool(
		mcp.NewTool("cml_delete_group",
			mcp.WithDescription("Delete a CML group. Requires admin privileges."),
			mcp.WithString("group_id", mcp.Required(), mcp.Description("The group's UUID.")),
			mcp.WithDestructiveHintAnnotation(true),
		),
		gateway.DispatchOptions{
			Destructive:    true,
			ConfirmMessage: "This will permanently delete the group.",
			Handler: requireAdmin(func(ctx context.Context, client *gateway.Client, input map[string]any) (any, error) {
				groupID, err := stringArg(input, "group_id")
				if err != nil {
					return nil, err
				}
				if err := client.Delete(ctx, fmt.Sprintf("/groups/%s", groupID), nil); err != nil {
					return nil, err
				}
				return map[string]string{"group_id": groupID, "state": "deleted"}, nil
			}),
		},
	)
}
