package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDArray maps a postgres uuid[] column onto a Go slice. The wire form is
// the array literal {uuid,uuid}; sqlite stores the same string, which keeps
// the type usable in test databases.
type UUIDArray []uuid.UUID

func (a *UUIDArray) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		return a.decode(v)
	case []byte:
		return a.decode(string(v))
	default:
		return fmt.Errorf("UUIDArray: unsupported Scan type %T", src)
	}
}

func (a UUIDArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	parts := make([]string, len(a))
	for i, id := range a {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

func (a *UUIDArray) decode(literal string) error {
	body := strings.TrimSpace(literal)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")
	if strings.TrimSpace(body) == "" {
		*a = UUIDArray{}
		return nil
	}

	elems := strings.Split(body, ",")
	out := make([]uuid.UUID, 0, len(elems))
	for _, elem := range elems {
		id, err := uuid.Parse(strings.TrimSpace(strings.Trim(elem, `"`)))
		if err != nil {
			return fmt.Errorf("UUIDArray: parse %q: %w", elem, err)
		}
		out = append(out, id)
	}
	*a = UUIDArray(out)
	return nil
}
