package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

// Roles are granted by superusers only; the API rules reject any client
// request that sets the field.
const (
	usersCreateRule = "@request.body.role:isset = false"
	usersUpdateRule = "id = @request.auth.id && @request.body.role:isset = false"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		users.Fields.Add(&core.SelectField{
			Name:      "role",
			MaxSelect: 1,
			Values:    []string{"player", "organizer", "admin"},
		})
		users.CreateRule = types.Pointer(usersCreateRule)
		users.UpdateRule = types.Pointer(usersUpdateRule)

		return app.Save(users)
	}, func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		users.Fields.RemoveByName("role")
		users.CreateRule = types.Pointer("")
		users.UpdateRule = types.Pointer("id = @request.auth.id")

		return app.Save(users)
	})
}
