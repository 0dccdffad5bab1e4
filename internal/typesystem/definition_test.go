package typesystem_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/typesystem"
	"github.com/zjrosen/composer/internal/typesystem/livetype"
)

func TestTypeDefinition_Inheritance(t *testing.T) {
	object := livetype.Class(corlib, "System", "Object")
	disposable := livetype.Interface(corlib, "System", "IDisposable")
	base := livetype.Class(plugin, "Acme", "PluginBase").WithBase(object)
	calc := livetype.Class(plugin, "Acme", "Calculator").
		WithBase(base).
		Implements(disposable, disposable)

	pool := typesystem.NewIdentityPool()
	def, err := pool.Definition(calc)
	require.NoError(t, err)

	require.True(t, def.IsClass())
	require.False(t, def.IsInterface())
	require.Equal(t, "Acme.PluginBase", def.BaseType().String())
	require.Len(t, def.Interfaces(), 1, "interfaces form a set")
	require.Nil(t, def.GenericTypeDefinition())

	dispID, err := pool.Identity(disposable)
	require.NoError(t, err)
	require.True(t, def.Implements(dispID))

	cached, err := pool.Definition(calc)
	require.NoError(t, err)
	require.Same(t, def, cached)
}

func TestTypeDefinition_GenericDefinition(t *testing.T) {
	list := livetype.GenericDefinition(corlib, "System.Collections.Generic", "List", false, "T")
	pool := typesystem.NewIdentityPool()

	open, err := pool.Definition(list)
	require.NoError(t, err)
	require.Nil(t, open.GenericTypeDefinition(), "an open generic is not its own definition")

	closed, err := pool.Definition(list.MakeGeneric(livetype.Class(corlib, "System", "Int32")))
	require.NoError(t, err)
	require.True(t, closed.GenericTypeDefinition().Equal(open.Identity()))
}

func TestTypeDefinition_GenericParameterHasNoInheritance(t *testing.T) {
	comparable := livetype.GenericDefinition(corlib, "System", "IComparable", true, "T")
	param := comparable.Param(0).WithBase(livetype.Class(corlib, "System", "Object"))

	def, err := typesystem.CreateTypeDefinition(param, typesystem.NewIdentityPool().Generator())
	require.NoError(t, err)
	require.True(t, def.Identity().IsGenericParameter())
	require.Nil(t, def.BaseType())
	require.Empty(t, def.Interfaces())
}

func TestTypeDefinition_EqualAndJSON(t *testing.T) {
	iface := livetype.Interface(plugin, "Acme", "ICalc")
	calc := livetype.Class(plugin, "Acme", "Calculator").Implements(iface)

	def, err := typesystem.NewIdentityPool().Definition(calc)
	require.NoError(t, err)
	other, err := typesystem.NewIdentityPool().Definition(livetype.Class(plugin, "Acme", "Calculator"))
	require.NoError(t, err)
	require.True(t, def.Equal(other), "equality reduces to identity")

	data, err := json.Marshal(def)
	require.NoError(t, err)
	var decoded typesystem.TypeDefinition
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, def.Equal(&decoded))
	require.Len(t, decoded.Interfaces(), 1)
	require.True(t, decoded.Interfaces()[0].Equal(def.Interfaces()[0]))
	require.True(t, decoded.IsClass())
}

func TestMemberDefinitions(t *testing.T) {
	intType := livetype.Class(corlib, "System", "Int32")
	strType := livetype.Class(corlib, "System", "String")
	calc := livetype.Class(plugin, "Acme", "Calculator").
		WithConstructor(livetype.Param("seed", intType), livetype.Param("name", strType)).
		WithProperty("Total", intType).
		WithMethod("Add", intType, livetype.Param("a", intType), livetype.Param("b", intType)).
		WithMethod("Reset", nil)
	gen := typesystem.NewIdentityPool().Generator()

	t.Run("constructor", func(t *testing.T) {
		ctor, err := typesystem.CreateConstructorDefinition(calc.Constructors()[0], gen)
		require.NoError(t, err)
		require.Len(t, ctor.Parameters(), 2)
		require.Equal(t, 1, ctor.Parameter(1).Position())
		require.Equal(t, "name", ctor.Parameter(1).Name())
		require.Nil(t, ctor.Parameter(5))
		require.Equal(t, "Acme.Calculator(System.Int32 seed, System.String name)", ctor.String())

		again, err := typesystem.CreateConstructorDefinition(calc.Constructors()[0], typesystem.NewIdentityPool().Generator())
		require.NoError(t, err)
		require.True(t, ctor.Equal(again))
		require.Equal(t, ctor.Key(), again.Key())

		data, err := json.Marshal(ctor)
		require.NoError(t, err)
		var decoded typesystem.ConstructorDefinition
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.True(t, ctor.Equal(&decoded))
	})

	t.Run("method", func(t *testing.T) {
		add, err := typesystem.CreateMethodDefinition(calc.Method("Add"), gen)
		require.NoError(t, err)
		require.False(t, add.IsVoid())
		require.Equal(t, "System.Int32 Acme.Calculator.Add(System.Int32 a, System.Int32 b)", add.String())

		reset, err := typesystem.CreateMethodDefinition(calc.Method("Reset"), gen)
		require.NoError(t, err)
		require.True(t, reset.IsVoid())
		require.False(t, add.Equal(reset))

		data, err := json.Marshal(reset)
		require.NoError(t, err)
		var decoded typesystem.MethodDefinition
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.True(t, reset.Equal(&decoded))
		require.Nil(t, decoded.ReturnType())
	})

	t.Run("property", func(t *testing.T) {
		total, err := typesystem.CreatePropertyDefinition(calc.Property("Total"), gen)
		require.NoError(t, err)
		require.Equal(t, "Total", total.Name())
		require.Equal(t, "System.Int32", total.PropertyType().String())

		data, err := json.Marshal(total)
		require.NoError(t, err)
		var decoded typesystem.PropertyDefinition
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.True(t, total.Equal(&decoded))
		require.Equal(t, total.Key(), decoded.Key())
	})

	t.Run("nil members", func(t *testing.T) {
		_, err := typesystem.CreatePropertyDefinition(nil, gen)
		require.ErrorIs(t, err, typesystem.ErrNilMember)
		_, err = typesystem.CreateMethodDefinition(nil, gen)
		require.ErrorIs(t, err, typesystem.ErrNilMember)
		_, err = typesystem.CreateConstructorDefinition(nil, gen)
		require.ErrorIs(t, err, typesystem.ErrNilMember)
		_, err = typesystem.CreateParameterDefinition(nil, gen)
		require.ErrorIs(t, err, typesystem.ErrNilMember)
	})
}
