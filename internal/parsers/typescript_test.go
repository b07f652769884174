package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spark-cjbot/axon/internal/graph"
)

func TestTypeScriptParser_Parse(t *testing.T) {
	t.Parallel()

	parser := &TypeScriptParser{}

	t.Run("ExportedFunction", func(t *testing.T) {
		content := []byte(`export function createUser(name: string): User {
  return new User(name);
}
`)
		result, err := parser.Parse("users.ts", content)
		require.NoError(t, err)

		fn := findSymbol(result, "createUser")
		require.NotNil(t, fn)
		assert.Equal(t, graph.NodeFunction, fn.Kind)
		assert.True(t, fn.IsExported)
		assert.Contains(t, result.Exports, "createUser")
	})

	t.Run("ArrowFunction", func(t *testing.T) {
		content := []byte(`export const handler = (req, res) => {
  res.send("ok");
};
`)
		result, err := parser.Parse("app.ts", content)
		require.NoError(t, err)

		fn := findSymbol(result, "handler")
		require.NotNil(t, fn)
		assert.Equal(t, graph.NodeFunction, fn.Kind)
		assert.Equal(t, []string{"req", "res"}, fn.ParamNames)
		assert.True(t, fn.IsExported)
	})

	t.Run("ClassHeritage", func(t *testing.T) {
		content := []byte(`export class AdminService extends BaseService implements IAdmin {
  promote(user: User): void {}
}
`)
		result, err := parser.Parse("admin.ts", content)
		require.NoError(t, err)

		class := findSymbol(result, "AdminService")
		require.NotNil(t, class)
		assert.Contains(t, class.Bases, "BaseService")
		assert.Contains(t, class.Bases, "IAdmin")

		method := findSymbol(result, "AdminService.promote")
		require.NotNil(t, method)
		assert.Equal(t, graph.NodeMethod, method.Kind)
		assert.Equal(t, "AdminService", method.ClassName)
	})

	t.Run("Constructor", func(t *testing.T) {
		content := []byte(`class UserService {
  constructor(repo) {
    this.repo = repo;
  }
}
`)
		result, err := parser.Parse("svc.ts", content)
		require.NoError(t, err)

		ctor := findSymbol(result, "UserService.constructor")
		require.NotNil(t, ctor)
		assert.True(t, ctor.IsCtor)
	})

	t.Run("Interface", func(t *testing.T) {
		content := []byte(`export interface IUserService {
  getUser(id: number): User;
  deleteUser(id: number): void;
}
`)
		result, err := parser.Parse("iface.ts", content)
		require.NoError(t, err)

		iface := findSymbol(result, "IUserService")
		require.NotNil(t, iface)
		assert.Equal(t, graph.NodeInterface, iface.Kind)
		assert.Equal(t, []string{"getUser", "deleteUser"}, iface.MethodsDeclared)
	})

	t.Run("TypeAliasAndEnum", func(t *testing.T) {
		content := []byte(`export type UserID = string;

export enum Role {
  Admin,
  Member,
}
`)
		result, err := parser.Parse("types.ts", content)
		require.NoError(t, err)

		alias := findSymbol(result, "UserID")
		require.NotNil(t, alias)
		assert.Equal(t, graph.NodeTypeAlias, alias.Kind)
		assert.Equal(t, "string", alias.TargetSyntactic)

		enum := findSymbol(result, "Role")
		require.NotNil(t, enum)
		assert.Equal(t, graph.NodeEnum, enum.Kind)
		assert.Equal(t, []string{"Admin", "Member"}, enum.Variants)
	})

	t.Run("Imports", func(t *testing.T) {
		content := []byte(`import { User, Post } from "./models";
import express from "express";
import * as db from "../db";
`)
		result, err := parser.Parse("src/app.ts", content)
		require.NoError(t, err)
		require.Len(t, result.Imports, 3)

		assert.Equal(t, "./models", result.Imports[0].Spec)
		assert.Equal(t, []string{"User", "Post"}, result.Imports[0].Symbols)
		assert.True(t, result.Imports[0].IsRelative)

		assert.Equal(t, "express", result.Imports[1].Spec)
		assert.False(t, result.Imports[1].IsRelative)

		assert.Equal(t, "../db", result.Imports[2].Spec)
		assert.Equal(t, "db", result.Imports[2].Alias)
	})

	t.Run("MethodCallsWithReceiverType", func(t *testing.T) {
		content := []byte(`class UserController {
  private repo: IUserRepository;

  list() {
    return this.repo.findAll();
  }
}
`)
		result, err := parser.Parse("ctrl.ts", content)
		require.NoError(t, err)

		var found bool
		for _, call := range result.Calls {
			if call.Callee == "findAll" {
				found = true
				assert.Equal(t, "UserController.list", call.Caller)
				assert.Equal(t, "IUserRepository", call.ReceiverType)
			}
		}
		assert.True(t, found, "expected a findAll call site")
	})

	t.Run("JSXUsageIsACall", func(t *testing.T) {
		content := []byte(`export function App() {
  return <UserList limit={10} />;
}
`)
		result, err := parser.Parse("App.tsx", content)
		require.NoError(t, err)

		var found bool
		for _, call := range result.Calls {
			if call.Callee == "UserList" && call.Caller == "App" {
				found = true
			}
		}
		assert.True(t, found, "JSX element should produce a call site")
	})
}

func TestJavaScriptParser_Parse(t *testing.T) {
	t.Parallel()

	parser := &JavaScriptParser{}

	t.Run("FunctionAndCalls", func(t *testing.T) {
		content := []byte(`function load() {
  return fetchData();
}

function fetchData() {
  return [];
}
`)
		result, err := parser.Parse("load.js", content)
		require.NoError(t, err)

		require.NotNil(t, findSymbol(result, "load"))
		require.NotNil(t, findSymbol(result, "fetchData"))

		var found bool
		for _, call := range result.Calls {
			if call.Caller == "load" && call.Callee == "fetchData" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("ClassExtends", func(t *testing.T) {
		content := []byte(`class Admin extends User {
  promote() {}
}
`)
		result, err := parser.Parse("admin.js", content)
		require.NoError(t, err)

		class := findSymbol(result, "Admin")
		require.NotNil(t, class)
		assert.Equal(t, []string{"User"}, class.Bases)
	})

	t.Run("DefaultExport", func(t *testing.T) {
		content := []byte(`export default function handler(req, res) {
  res.end();
}
`)
		result, err := parser.Parse("api.js", content)
		require.NoError(t, err)

		fn := findSymbol(result, "handler")
		require.NotNil(t, fn)
		assert.True(t, fn.IsDefaultExport)
	})
}
