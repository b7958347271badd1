package pattern

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seclens/seclens/extractor/facts"
)

func extract(t *testing.T, lang facts.Language, source, path string) *facts.FileResult {
	t.Helper()
	extractor := ForLanguage(lang)
	require.NotNil(t, extractor)
	result, err := extractor.Extract(context.Background(), []byte(source), path)
	require.NoError(t, err)
	return result
}

func TestExtract_TypeScript(t *testing.T) {
	source := `export function handleRequest(req: Request) {
  return getUser(req.id);
}

const listUsers = (filter: string) => {
  return db.query(filter);
};

class UserService {
  public findUser(id: string) {
    return this.repo.load(id);
  }
}
`
	result := extract(t, facts.LangTypeScript, source, "app.ts")

	assert.Equal(t, facts.MethodFallback, result.Quality.Method)
	assert.Equal(t, 0.5, result.Quality.Completeness)

	handle := result.LookupFunction("handleRequest")
	require.NotNil(t, handle)
	require.Len(t, handle.Parameters, 1)
	assert.Equal(t, "req", handle.Parameters[0].Name)
	assert.Equal(t, "Request", handle.Parameters[0].Type)

	require.NotNil(t, result.LookupFunction("listUsers"))

	findUser := result.LookupFunction("UserService.findUser")
	require.NotNil(t, findUser)
	assert.Equal(t, "UserService", findUser.Parent)

	var callees []string
	for _, call := range result.Calls {
		callees = append(callees, call.Callee)
	}
	assert.Contains(t, callees, "getUser")
	assert.Contains(t, callees, "db.query")
	assert.Contains(t, callees, "this.repo.load")

	for _, call := range result.Calls {
		if call.Callee == "getUser" {
			assert.Equal(t, "handleRequest", call.Caller)
		}
	}
}

func TestExtract_Python(t *testing.T) {
	source := `@app.route("/users")
def list_users(request):
    session = get_session()
    return session.query(request)

class UserRepo:
    def __init__(self, session):
        self.session = session

    def find(self, user_id):
        return self.load(user_id)

def top_level():
    pass
`
	result := extract(t, facts.LangPython, source, "views.py")

	listUsers := result.LookupFunction("list_users")
	require.NotNil(t, listUsers)
	assert.Contains(t, listUsers.Annotations, "app.route")

	init := result.LookupFunction("UserRepo.__init__")
	require.NotNil(t, init)
	assert.True(t, init.IsConstructor)

	find := result.LookupFunction("UserRepo.find")
	require.NotNil(t, find)

	// dedent ends the class scope
	top := result.LookupFunction("top_level")
	require.NotNil(t, top)
	assert.Equal(t, "", top.Parent)

	var callees []string
	for _, call := range result.Calls {
		callees = append(callees, call.Callee)
	}
	assert.Contains(t, callees, "get_session")
}

func TestExtract_Java(t *testing.T) {
	source := `public class UserController {

    @GetMapping
    public User getUser(Long id) {
        return userRepository.findById(id);
    }
}
`
	result := extract(t, facts.LangJava, source, "UserController.java")

	getUser := result.LookupFunction("UserController.getUser")
	require.NotNil(t, getUser)
	assert.Contains(t, getUser.Annotations, "GetMapping")
	require.Len(t, getUser.Parameters, 1)
	assert.Equal(t, "id", getUser.Parameters[0].Name)
	assert.Equal(t, "Long", getUser.Parameters[0].Type)

	var callees []string
	for _, call := range result.Calls {
		callees = append(callees, call.Callee)
	}
	assert.Contains(t, callees, "userRepository.findById")
}

func TestExtract_CSharp(t *testing.T) {
	source := `public class UserService {

    [HttpGet]
    public User GetUser(int id) {
        return _db.Users.Find(id);
    }
}
`
	result := extract(t, facts.LangCSharp, source, "UserService.cs")

	getUser := result.LookupFunction("UserService.GetUser")
	require.NotNil(t, getUser)
	assert.Contains(t, getUser.Annotations, "HttpGet")

	var callees []string
	for _, call := range result.Calls {
		callees = append(callees, call.Callee)
	}
	assert.Contains(t, callees, "_db.Users.Find")
}

func TestExtract_PHP(t *testing.T) {
	source := `<?php

class UserController {
    public function index() {
        return $this->repo->findAll();
    }

    public function __construct($repo) {
        $this->repo = $repo;
    }
}
`
	result := extract(t, facts.LangPHP, source, "UserController.php")

	index := result.LookupFunction("UserController.index")
	require.NotNil(t, index)

	ctor := result.LookupFunction("UserController.__construct")
	require.NotNil(t, ctor)
	assert.True(t, ctor.IsConstructor)
	require.Len(t, ctor.Parameters, 1)
	assert.Equal(t, "repo", ctor.Parameters[0].Name)

	var callees []string
	for _, call := range result.Calls {
		callees = append(callees, call.Callee)
	}
	assert.Contains(t, callees, "this.repo.findAll")
}

func TestExtract_NothingMatched(t *testing.T) {
	result := extract(t, facts.LangJava, "just some text\nwithout any code\n", "Empty.java")

	assert.Empty(t, result.Functions)
	assert.True(t, result.Quality.Low())
	assert.NotEmpty(t, result.Quality.Reason)
}

func TestForLanguage_Unsupported(t *testing.T) {
	assert.Nil(t, ForLanguage(facts.Language("cobol")))
}
