package schemabuild

import "github.com/jward/notation/internal/schema"

// Demo type names.
const (
	DemoTopLevel schema.TypeRef = "com.example.TopLevelScope"
	DemoA        schema.TypeRef = "com.example.A"
	DemoB        schema.TypeRef = "com.example.B"
	DemoC        schema.TypeRef = "com.example.C"
	DemoD        schema.TypeRef = "com.example.D"
	DemoSettings schema.TypeRef = "com.example.Settings"
)

func configure(receiver schema.TypeRef) ParameterDescriptor {
	return ParameterDescriptor{Name: "configure", Lambda: &LambdaDescriptor{Receiver: receiver}}
}

// DemoTable returns the descriptor table of the demo schema:
//
//	class TopLevelScope {
//	    var a: A
//	    var version: String
//	    val settings: Settings
//	    @Restricted fun b(): B
//	    @Adding fun c(id: Int, configure: C.() -> Unit): C
//	    @Restricted fun newD(id: String): D
//	    @Builder fun version(version: String): TopLevelScope
//	    @Configuring fun settings(configure: Settings.() -> Unit)
//	}
//	open class A { var name: String = "" }
//	class B : A()
//	class C { var id: Int; var x: Int; var y: String = ""; var d: D; @Restricted fun f(y: String): Int }
//	class D(private val id: String)
//	class Settings { var verbose: Boolean = false; getLevel(): Int; setLevel(Int) }
func DemoTable() *Table {
	return &Table{
		TopLevel: DemoTopLevel,
		Types: []TypeDescriptor{
			{
				Name: DemoTopLevel,
				Properties: []PropertyDescriptor{
					{Name: "a", Type: DemoA, Mutable: true},
					{Name: "version", Type: schema.StringType, Mutable: true, HasDefault: true},
					{Name: "settings", Type: DemoSettings, HasDefault: true},
				},
				Functions: []FunctionDescriptor{
					{Name: "b", Returns: DemoB, Annotations: []Annotation{Restricted}},
					{
						Name:        "c",
						Parameters:  []ParameterDescriptor{{Name: "id", Type: schema.IntType}, configure(DemoC)},
						Returns:     DemoC,
						Annotations: []Annotation{Adding},
					},
					{
						Name:        "newD",
						Parameters:  []ParameterDescriptor{{Name: "id", Type: schema.StringType}},
						Returns:     DemoD,
						Annotations: []Annotation{Restricted},
					},
					{
						Name:        "version",
						Parameters:  []ParameterDescriptor{{Name: "version", Type: schema.StringType}},
						Returns:     DemoTopLevel,
						Annotations: []Annotation{Builder},
					},
					{
						Name:        "settings",
						Parameters:  []ParameterDescriptor{configure(DemoSettings)},
						Annotations: []Annotation{Configuring},
					},
					{Name: "toString", Returns: schema.StringType, Annotations: []Annotation{Restricted}},
				},
			},
			{
				Name:                 DemoA,
				DefaultConstructible: true,
				Properties: []PropertyDescriptor{
					{Name: "name", Type: schema.StringType, Mutable: true, HasDefault: true},
				},
			},
			{Name: DemoB, Supertypes: []schema.TypeRef{DemoA}, DefaultConstructible: true},
			{
				Name: DemoC,
				Properties: []PropertyDescriptor{
					{Name: "id", Type: schema.IntType, Mutable: true},
					{Name: "x", Type: schema.IntType, Mutable: true},
					{Name: "y", Type: schema.StringType, Mutable: true, HasDefault: true},
					{Name: "d", Type: DemoD, Mutable: true},
				},
				Functions: []FunctionDescriptor{
					{
						Name:        "f",
						Parameters:  []ParameterDescriptor{{Name: "y", Type: schema.StringType}},
						Returns:     schema.IntType,
						Annotations: []Annotation{Restricted},
					},
				},
			},
			{
				Name: DemoD,
				Properties: []PropertyDescriptor{
					{Name: "id", Type: schema.StringType, Private: true},
				},
				Constructors: []ConstructorDescriptor{
					{Parameters: []ParameterDescriptor{{Name: "id", Type: schema.StringType}}},
				},
			},
			{
				Name:                 DemoSettings,
				DefaultConstructible: true,
				Properties: []PropertyDescriptor{
					{Name: "verbose", Type: schema.BooleanType, Mutable: true, HasDefault: true},
				},
				Functions: []FunctionDescriptor{
					{Name: "getLevel", Returns: schema.IntType},
					{Name: "setLevel", Parameters: []ParameterDescriptor{{Name: "value", Type: schema.IntType}}},
				},
			},
		},
		ExternalFunctions: []FunctionDescriptor{
			{
				Name:        "greeting",
				Package:     "com.example.util",
				Parameters:  []ParameterDescriptor{{Name: "name", Type: schema.StringType}},
				Returns:     schema.StringType,
				Annotations: []Annotation{Restricted},
			},
		},
		ExternalObjects: []ExternalObject{
			{Name: "com.example.util.sharedD", Type: DemoD},
		},
		DefaultImports: []string{"com.example.util.greeting"},
	}
}

// DemoSchema builds the demo schema. It panics on error since the table is static.
func DemoSchema() *schema.AnalysisSchema {
	s, err := Build(DemoTable())
	if err != nil {
		panic(err)
	}
	return s
}
