package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tejzpr/fieldschema-mcp/internal/apperr"
	"github.com/tejzpr/fieldschema-mcp/internal/hierarchy"
	"github.com/tejzpr/fieldschema-mcp/internal/manager"
	"github.com/tejzpr/fieldschema-mcp/internal/schema"
	"github.com/tejzpr/fieldschema-mcp/internal/validation"
)

// Register adds every field-schema tool to s.
func Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("define_request_type",
		mcp.WithDescription("Create a request type. fieldConfig may be partial; missing standard fields take their defaults and title is always required."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name of the request type")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("iconName", mcp.Description("Optional icon name")),
		mcp.WithString("color", mcp.Description("Optional color")),
		mcp.WithObject("fieldConfig", mcp.Description("Map of field key to {enabled, required, label, order, type, options}")),
		mcp.WithArray("customFields", mcp.Description("Custom fields as [{key, setting}]")),
	), DefineRequestType)

	s.AddTool(mcp.NewTool("update_request_type",
		mcp.WithDescription("Update a request type. A fieldConfig replaces the stored configuration; expectedVersion guards against concurrent edits."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Request type id")),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("iconName", mcp.Description("New icon name")),
		mcp.WithString("color", mcp.Description("New color")),
		mcp.WithBoolean("isActive", mcp.Description("Whether new requests may be submitted")),
		mcp.WithObject("fieldConfig", mcp.Description("Full replacement field configuration")),
		mcp.WithNumber("expectedVersion", mcp.Description("Version the update was based on")),
	), UpdateRequestType)

	s.AddTool(mcp.NewTool("merge_field_config",
		mcp.WithDescription("Return the effective schema of a stored request type, or of a draft fieldConfig merged with the defaults."),
		mcp.WithNumber("requestTypeId", mcp.Description("Stored request type to read")),
		mcp.WithObject("fieldConfig", mcp.Description("Draft configuration to merge when no requestTypeId is given")),
	), MergeFieldConfig)

	s.AddTool(mcp.NewTool("validate_submission",
		mcp.WithDescription("Check a submission against the effective schema of a request type without storing it."),
		mcp.WithNumber("requestTypeId", mcp.Required(), mcp.Description("Request type id")),
		mcp.WithObject("fields", mcp.Description("Standard field values keyed by field key")),
		mcp.WithObject("customFields", mcp.Description("Custom field values keyed by field key")),
	), ValidateSubmission)

	s.AddTool(mcp.NewTool("submit_request",
		mcp.WithDescription("Validate and store a request. Disabled fields are dropped."),
		mcp.WithNumber("requestTypeId", mcp.Required(), mcp.Description("Request type id")),
		mcp.WithObject("fields", mcp.Description("Standard field values keyed by field key, including groupId and subGroupId")),
		mcp.WithObject("customFields", mcp.Description("Custom field values keyed by field key")),
	), SubmitRequest)

	s.AddTool(mcp.NewTool("create_group",
		mcp.WithDescription("Create a group under a request type."),
		mcp.WithNumber("requestTypeId", mcp.Required(), mcp.Description("Owning request type id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Group name")),
		mcp.WithString("description", mcp.Description("Optional description")),
	), CreateGroup)

	s.AddTool(mcp.NewTool("create_subgroup",
		mcp.WithDescription("Create a subgroup under a group."),
		mcp.WithNumber("groupId", mcp.Required(), mcp.Description("Parent group id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Subgroup name")),
		mcp.WithString("description", mcp.Description("Optional description")),
	), CreateSubGroup)

	s.AddTool(mcp.NewTool("toggle_active",
		mcp.WithDescription("Show or hide a group or subgroup without touching what references it."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("group or subgroup")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Group or subgroup id")),
		mcp.WithBoolean("isActive", mcp.Required(), mcp.Description("New visibility")),
	), ToggleActive)

	s.AddTool(mcp.NewTool("delete_group",
		mcp.WithDescription("Delete a group that has no subgroups and no requests."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Group id")),
	), DeleteGroup)

	s.AddTool(mcp.NewTool("delete_subgroup",
		mcp.WithDescription("Delete a subgroup that no request references."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Subgroup id")),
	), DeleteSubGroup)
}

// result renders v as JSON text. Caller mistakes become tool errors the
// model can read; anything else is returned as a Go error.
func result(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if !apperr.IsCallerError(err) {
			return nil, err
		}
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			body, _ := json.Marshal(map[string]any{"error": "validation failed", "errors": fieldErrs})
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}

func requireID(request mcp.CallToolRequest, key string) (uint, *mcp.CallToolResult) {
	n, err := request.RequireInt(key)
	if err != nil || n <= 0 {
		return 0, mcp.NewToolResultError(key + " must be a positive id")
	}
	return uint(n), nil
}

func bind(request mcp.CallToolRequest, v any) *mcp.CallToolResult {
	if err := request.BindArguments(v); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

func DefineRequestType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := request.RequireString("name"); err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	var in manager.RequestTypeInput
	if res := bind(request, &in); res != nil {
		return res, nil
	}
	return result(manager.Types.DefineRequestType(ctx, in))
}

func UpdateRequestType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireID(request, "id")
	if res != nil {
		return res, nil
	}
	var patch manager.RequestTypePatch
	if res := bind(request, &patch); res != nil {
		return res, nil
	}
	return result(manager.Types.UpdateRequestType(ctx, id, patch))
}

func MergeFieldConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetInt("requestTypeId", 0) > 0 {
		id, res := requireID(request, "requestTypeId")
		if res != nil {
			return res, nil
		}
		return result(manager.Types.EffectiveConfig(ctx, id))
	}
	var args struct {
		FieldConfig schema.RawConfig `json:"fieldConfig"`
	}
	if res := bind(request, &args); res != nil {
		return res, nil
	}
	return result(schema.Merge(args.FieldConfig), nil)
}

func ValidateSubmission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireID(request, "requestTypeId")
	if res != nil {
		return res, nil
	}
	var payload validation.Payload
	if res := bind(request, &payload); res != nil {
		return res, nil
	}
	return result(manager.Instance.ValidateSubmission(ctx, id, payload))
}

func SubmitRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireID(request, "requestTypeId")
	if res != nil {
		return res, nil
	}
	var payload validation.Payload
	if res := bind(request, &payload); res != nil {
		return res, nil
	}
	return result(manager.Instance.SubmitRequest(ctx, id, payload))
}

func CreateGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID, res := requireID(request, "requestTypeId")
	if res != nil {
		return res, nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	return result(hierarchy.Instance.CreateGroup(ctx, typeID, name, request.GetString("description", "")))
}

func CreateSubGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupID, res := requireID(request, "groupId")
	if res != nil {
		return res, nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	s, typeID, err := hierarchy.Instance.CreateSubGroup(ctx, groupID, name, request.GetString("description", ""))
	if err != nil {
		return result(nil, err)
	}
	return result(map[string]any{"subGroup": s, "requestTypeId": typeID}, nil)
}

func ToggleActive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawKind, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required"), nil
	}
	kind, err := hierarchy.ParseKind(rawKind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, res := requireID(request, "id")
	if res != nil {
		return res, nil
	}
	isActive, err := request.RequireBool("isActive")
	if err != nil {
		return mcp.NewToolResultError("isActive is required"), nil
	}
	if err := hierarchy.Instance.ToggleActive(ctx, kind, id, isActive); err != nil {
		return result(nil, err)
	}
	return result(map[string]any{"kind": kind, "id": id, "isActive": isActive}, nil)
}

func DeleteGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return deleteNode(ctx, request, hierarchy.KindGroup, hierarchy.Instance.DeleteGroup)
}

func DeleteSubGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return deleteNode(ctx, request, hierarchy.KindSubGroup, hierarchy.Instance.DeleteSubGroup)
}

func deleteNode(ctx context.Context, request mcp.CallToolRequest, kind hierarchy.Kind, del func(context.Context, uint) error) (*mcp.CallToolResult, error) {
	id, res := requireID(request, "id")
	if res != nil {
		return res, nil
	}
	if err := del(ctx, id); err != nil {
		return result(nil, err)
	}
	return result(map[string]any{"kind": kind, "id": id, "deleted": true}, nil)
}
