package auth

import "strings"

// Placeholder labels substituted for blank scalar fields at render time.
// They are rendering artifacts only and are never written back to storage.
const (
	UnknownRoleLabel       = "Unknown Role"
	UnknownPermissionLabel = "Unknown Permission"
	UnknownGroupLabel      = "Unknown Group"
)

// TreeNode is an ephemeral rendering unit for role/permission hierarchies.
// Nodes are built fresh from a graph snapshot on every call and must not be
// cached: the graph may change underneath them. Keys are deterministic
// path-based composites, unique within a single render. Synthetic grouping
// nodes carry no entity id. Leaves never have children.
type TreeNode struct {
	ID           string      `json:"id,omitempty"`
	Key          string      `json:"key"`
	Label        string      `json:"label"`
	IsPermission bool        `json:"isPermission,omitempty"`
	Children     []*TreeNode `json:"children,omitempty"`
}

// RolesWithPermissionsTree renders one node per role with that role's
// permissions as leaves. Roles and permissions keep the iteration order of
// the backing snapshot; no semantic sort is applied. Entities without an
// identifier are skipped rather than rendered.
func RolesWithPermissionsTree(roles []Role, permissionsByRole map[string][]Permission) []*TreeNode {
	nodes := make([]*TreeNode, 0, len(roles))
	for _, role := range roles {
		if role.ID == "" {
			continue
		}
		node := &TreeNode{
			ID:       role.ID,
			Key:      role.ID,
			Label:    labelOr(role.Name, UnknownRoleLabel),
			Children: []*TreeNode{},
		}
		for _, perm := range permissionsByRole[role.ID] {
			if perm.ID == "" {
				continue
			}
			node.Children = append(node.Children, &TreeNode{
				ID:           perm.ID,
				Key:          role.ID + "/" + perm.ID,
				Label:        labelOr(perm.Name, UnknownPermissionLabel),
				IsPermission: true,
			})
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// RolesWithPermissionsGroupedTree renders the same role nodes but inserts a
// grouping level: permissions under each role are partitioned by group
// label, with blank labels collected into the "Unknown Group" partition.
// Grouping is a re-partition, never a filter: the union of a role's group
// leaves equals its flat permission list. Groups appear in first-encounter
// order of the permission snapshot.
func RolesWithPermissionsGroupedTree(roles []Role, permissionsByRole map[string][]Permission) []*TreeNode {
	nodes := make([]*TreeNode, 0, len(roles))
	for _, role := range roles {
		if role.ID == "" {
			continue
		}
		roleNode := &TreeNode{
			ID:       role.ID,
			Key:      role.ID,
			Label:    labelOr(role.Name, UnknownRoleLabel),
			Children: []*TreeNode{},
		}
		groups := make(map[string]*TreeNode)
		for _, perm := range permissionsByRole[role.ID] {
			if perm.ID == "" {
				continue
			}
			groupLabel := labelOr(perm.GroupName, UnknownGroupLabel)
			groupNode, ok := groups[groupLabel]
			if !ok {
				groupNode = &TreeNode{
					Key:      role.ID + "/" + groupLabel,
					Label:    groupLabel,
					Children: []*TreeNode{},
				}
				groups[groupLabel] = groupNode
				roleNode.Children = append(roleNode.Children, groupNode)
			}
			groupNode.Children = append(groupNode.Children, &TreeNode{
				ID:           perm.ID,
				Key:          role.ID + "/" + groupLabel + "/" + perm.ID,
				Label:        labelOr(perm.Name, UnknownPermissionLabel),
				IsPermission: true,
			})
		}
		nodes = append(nodes, roleNode)
	}
	return nodes
}

// PermissionsGroupedByGroup partitions the full permission set by group
// label, independent of roles. Every permission lands in exactly one group
// node; blank group labels share the single "Unknown Group" node.
func PermissionsGroupedByGroup(perms []Permission) []*TreeNode {
	var nodes []*TreeNode
	groups := make(map[string]*TreeNode)
	for _, perm := range perms {
		if perm.ID == "" {
			continue
		}
		groupLabel := labelOr(perm.GroupName, UnknownGroupLabel)
		groupNode, ok := groups[groupLabel]
		if !ok {
			groupNode = &TreeNode{
				Key:      groupLabel,
				Label:    groupLabel,
				Children: []*TreeNode{},
			}
			groups[groupLabel] = groupNode
			nodes = append(nodes, groupNode)
		}
		groupNode.Children = append(groupNode.Children, &TreeNode{
			ID:           perm.ID,
			Key:          groupLabel + "/" + perm.ID,
			Label:        labelOr(perm.Name, UnknownPermissionLabel),
			IsPermission: true,
		})
	}
	return nodes
}

func labelOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
