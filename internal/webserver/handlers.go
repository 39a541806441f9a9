package webserver

import (
	"net/http"
	"strconv"

	"github.com/tejzpr/fieldschema-mcp/internal/hierarchy"
	"github.com/tejzpr/fieldschema-mcp/internal/manager"
	"github.com/tejzpr/fieldschema-mcp/internal/schema"
	"github.com/tejzpr/fieldschema-mcp/internal/status"
	"github.com/tejzpr/fieldschema-mcp/internal/validation"
)

// handleMergeFieldConfig previews the effective schema of a stored or draft
// configuration without writing anything.
func handleMergeFieldConfig(w http.ResponseWriter, r *http.Request) {
	var raw schema.RawConfig
	if err := decode(r, &raw); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema.Merge(raw))
}

func handleListRequestTypes(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	out, err := manager.Types.ListRequestTypes(r.Context(), activeOnly, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func handleDefineRequestType(w http.ResponseWriter, r *http.Request) {
	var in manager.RequestTypeInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	rt, err := manager.Types.DefineRequestType(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func handleGetRequestType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := manager.Types.GetRequestType(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func handleUpdateRequestType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var patch manager.RequestTypePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	rt, err := manager.Types.UpdateRequestType(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func handleAddCustomField(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var field schema.CustomField
	if err := decode(r, &field); err != nil {
		writeError(w, err)
		return
	}
	rt, err := manager.Types.AddCustomField(r.Context(), id, field)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func handleRemoveCustomField(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	rt, err := manager.Types.RemoveCustomField(r.Context(), id, r.PathValue("key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func handleAddStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var opt schema.StatusOption
	if err := decode(r, &opt); err != nil {
		writeError(w, err)
		return
	}
	rt, err := manager.Types.AddStatusOption(r.Context(), id, opt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var patch status.Patch
	if err := decode(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	rt, err := manager.Types.UpdateStatusOption(r.Context(), id, index, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func handleRemoveStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rt, err := manager.Types.RemoveStatusOption(r.Context(), id, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func handleMoveStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Direction string `json:"direction"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	dir, err := status.ParseDirection(body.Direction)
	if err != nil {
		writeError(w, err)
		return
	}
	rt, err := manager.Types.MoveStatusOption(r.Context(), id, index, dir)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

// handleValidate runs a submission through the validator only.
func handleValidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var payload validation.Payload
	if err := decode(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	report, err := manager.Instance.ValidateSubmission(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func handleListGroups(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	page, limit := pageParams(r)
	out, err := hierarchy.Instance.ListGroups(r.Context(), id, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type nodeBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body nodeBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	g, err := hierarchy.Instance.CreateGroup(r.Context(), id, body.Name, body.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := hierarchy.Instance.GetGroup(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := hierarchy.Instance.DeleteGroup(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleListSubGroups(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	page, limit := pageParams(r)
	out, err := hierarchy.Instance.ListSubGroups(r.Context(), id, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func handleCreateSubGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body nodeBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	s, _, err := hierarchy.Instance.CreateSubGroup(r.Context(), id, body.Name, body.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func handleDeleteSubGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := hierarchy.Instance.DeleteSubGroup(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleToggleActive(kind hierarchy.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		var body struct {
			IsActive *bool `json:"isActive"`
		}
		if err := decode(r, &body); err != nil {
			writeError(w, err)
			return
		}
		if body.IsActive == nil {
			writeError(w, badRequest("isActive is required"))
			return
		}
		if err := hierarchy.Instance.ToggleActive(r.Context(), kind, id, *body.IsActive); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "isActive": *body.IsActive})
	}
}

func handleListRequests(w http.ResponseWriter, r *http.Request) {
	var typeID uint
	if v := r.URL.Query().Get("requestTypeId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, badRequest("invalid requestTypeId"))
			return
		}
		typeID = uint(id)
	}
	page, limit := pageParams(r)
	out, err := manager.Instance.ListRequests(r.Context(), typeID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := manager.Instance.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequestTypeID uint `json:"requestTypeId"`
		validation.Payload
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.RequestTypeID == 0 {
		writeError(w, badRequest("requestTypeId is required"))
		return
	}
	req, err := manager.Instance.SubmitRequest(r.Context(), body.RequestTypeID, body.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var payload validation.Payload
	if err := decode(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	req, err := manager.Instance.UpdateRequest(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
