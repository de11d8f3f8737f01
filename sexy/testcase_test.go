package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := `# Printing

## Test: print an integer
` + fence + `sophia-program
(program (class Main (constructor () () (print 1))))
` + fence + `
` + fence + `execute
1
` + fence + `

## Test: print a string
` + fence + `sophia-program
(program (class Main (constructor () () (print "hi"))))
` + fence + `
` + fence + `execute
hi
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "print an integer")
	be.Equal(t, tc1.Input, "(program (class Main (constructor () () (print 1))))")
	be.Equal(t, tc1.InputType, InputTypeSophiaProgram)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeExecute)
	be.Equal(t, tc1.Assertions[0].Content, "1")
	be.True(t, tc1.Assertions[0].ParsedSexy == nil)

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "print a string")
	be.Equal(t, tc2.Assertions[0].Content, "hi")
}

func TestExtractTestCases_MultipleAssertions(t *testing.T) {
	markdown := `## Test: multiple assertions
` + fence + `sophia-program
(program (class Main (constructor () () (print (+ 1 2)))))
` + fence + `
` + fence + `ast
(program (class Main (constructor () () (print (+ 1 2)))))
` + fence + `
` + fence + `jasmin Main.<init>
iconst_1
iconst_2
iadd
` + fence + `
` + fence + `execute
3
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, len(tc.Assertions), 3)

	be.Equal(t, tc.Assertions[0].Type, AssertionTypeAST)
	be.True(t, tc.Assertions[0].ParsedSexy != nil)
	be.Equal(t, tc.Assertions[0].ParsedSexy.Head(), "program")

	be.Equal(t, tc.Assertions[1].Type, AssertionTypeJasmin)
	be.Equal(t, tc.Assertions[1].Argument, "Main.<init>")
	be.Equal(t, tc.Assertions[1].Content, "iconst_1\niconst_2\niadd")

	be.Equal(t, tc.Assertions[2].Type, AssertionTypeExecute)
}

func TestExtractTestCases_CompileError(t *testing.T) {
	markdown := `## Test: unknown member
` + fence + `sophia-program
(program (class Main (constructor () () (print (member this nope)))))
` + fence + `
` + fence + `compile-error
nope
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	be.Equal(t, testCases[0].Assertions[0].Type, AssertionTypeCompileError)
	be.Equal(t, testCases[0].Assertions[0].Content, "nope")
}

func TestExtractTestCases_EmptyFile(t *testing.T) {
	testCases, err := ExtractTestCases("")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_NoTestCases(t *testing.T) {
	markdown := `# Notes

Some prose.

` + fence + `
plain block without a language
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_InvalidSexyAssertion(t *testing.T) {
	markdown := `## Test: invalid sexy
` + fence + `sophia-program
(program)
` + fence + `
` + fence + `ast
(unclosed list
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "failed to parse Sexy assertion"))
	be.True(t, strings.Contains(err.Error(), "line"))
}

func TestExtractTestCases_JasminFenceNeedsMethod(t *testing.T) {
	markdown := `## Test: anonymous jasmin
` + fence + `sophia-program
(program)
` + fence + `
` + fence + `jasmin
return
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "does not name a method"))
}

func TestExtractTestCases_FenceOutsideTestCase(t *testing.T) {
	tests := []struct {
		name      string
		markdown  string
		fenceType string
	}{
		{
			name:      "input fence",
			markdown:  "# Title\n\n" + fence + "sophia-program\n(program)\n" + fence,
			fenceType: "sophia-program",
		},
		{
			name:      "execute fence",
			markdown:  "# Title\n\n" + fence + "execute\n1\n" + fence,
			fenceType: "execute",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), test.fenceType+" fence found outside of test case"))
		})
	}
}

func TestExtractTestCases_UnknownFenceLanguage(t *testing.T) {
	outside := "# Title\n\n" + fence + "python\nprint(1)\n" + fence
	_, err := ExtractTestCases(outside)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "unknown fence language 'python' found outside of test case"))

	inside := "## Test: t\n" + fence + "sophia-program\n(program)\n" + fence + "\n" + fence + "python\nprint(1)\n" + fence
	_, err = ExtractTestCases(inside)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "unknown fence language 'python' in test 't'"))
}

func TestExtractTestCases_TestMissingFences(t *testing.T) {
	noInput := "## Test: no input\n" + fence + "execute\n1\n" + fence
	_, err := ExtractTestCases(noInput)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'no input' has no input fence"))

	noAssertion := "## Test: no assertion\n" + fence + "sophia-program\n(program)\n" + fence
	_, err = ExtractTestCases(noAssertion)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'no assertion' has no assertion fences"))
}

func TestExtractTestCases_MultipleInputFences(t *testing.T) {
	markdown := "## Test: twice\n" +
		fence + "sophia-program\n(program)\n" + fence + "\n" +
		fence + "sophia-program\n(program)\n" + fence + "\n" +
		fence + "execute\n\n" + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "multiple input fences"))
}

func TestExtractTestCases_LineNumberAccuracy(t *testing.T) {
	markdown := `# Title
Line 2
Line 3

` + fence + `sophia-program
(program)
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "line 6:"))
}
