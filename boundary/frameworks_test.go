package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seclens/seclens/extractor/facts"
)

func pointAt(points []AccessPoint, line int) *AccessPoint {
	for i := range points {
		if points[i].Line == line {
			return &points[i]
		}
	}
	return nil
}

func fieldNamed(fields []Field, table, name string) *Field {
	for i := range fields {
		if fields[i].Table == table && fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

func TestTypeScriptExtractor_Prisma(t *testing.T) {
	source := []byte(`const users = await prisma.user.findMany({ select: { ssn: true, email: true } });
await prisma.user.create({ data: { email: email } });
await prisma.session.deleteMany({ where: { expired: true } });
`)
	points, _ := NewTypeScriptExtractor().Extract(source, &facts.FileResult{Language: facts.LangTypeScript})
	require.Len(t, points, 3)

	read := pointAt(points, 1)
	require.NotNil(t, read)
	assert.Equal(t, OpRead, read.Operation)
	assert.Equal(t, "prisma", read.Framework)
	assert.Equal(t, "User", read.Table)
	assert.Equal(t, []string{"ssn", "email"}, read.Fields)

	write := pointAt(points, 2)
	require.NotNil(t, write)
	assert.Equal(t, OpWrite, write.Operation)

	del := pointAt(points, 3)
	require.NotNil(t, del)
	assert.Equal(t, OpDelete, del.Operation)
	assert.Equal(t, "Session", del.Table)
}

func TestTypeScriptExtractor_TypeORMEntity(t *testing.T) {
	source := []byte(`@Entity()
export class User {
  @PrimaryGeneratedColumn()
  id: number;

  @Column()
  email: string;

  // sensitive: restricted
  @Column()
  ssn: string;
}

export function unrelated() {}
`)
	_, fields := NewTypeScriptExtractor().Extract(source, &facts.FileResult{Language: facts.LangTypeScript})

	email := fieldNamed(fields, "User", "email")
	require.NotNil(t, email)
	assert.Equal(t, "string", email.Type)
	assert.Equal(t, TierPublic, email.Tier)
	assert.Equal(t, ProvenanceDefault, email.Provenance)

	ssn := fieldNamed(fields, "User", "ssn")
	require.NotNil(t, ssn)
	assert.Equal(t, TierRestricted, ssn.Tier)
	assert.Equal(t, ProvenanceDeclared, ssn.Provenance)
	assert.NotEmpty(t, ssn.Marker)
}

func TestPythonExtractor_Django(t *testing.T) {
	source := []byte(`class User(models.Model):
    email = models.EmailField()
    # sensitive: confidential
    phone = models.CharField(max_length=20)

def lookup(request):
    return User.objects.filter(active=True).values('phone')
`)
	points, fields := NewPythonExtractor().Extract(source, &facts.FileResult{Language: facts.LangPython})

	phone := fieldNamed(fields, "User", "phone")
	require.NotNil(t, phone)
	assert.Equal(t, "CharField", phone.Type)
	assert.Equal(t, TierConfidential, phone.Tier)
	assert.Equal(t, ProvenanceDeclared, phone.Provenance)

	email := fieldNamed(fields, "User", "email")
	require.NotNil(t, email)
	assert.Equal(t, ProvenanceDefault, email.Provenance)

	access := pointAt(points, 7)
	require.NotNil(t, access)
	assert.Equal(t, "django", access.Framework)
	assert.Equal(t, OpRead, access.Operation)
	assert.Equal(t, "User", access.Table)
	assert.Equal(t, []string{"phone"}, access.Fields)
}

func TestPythonExtractor_SQLAlchemy(t *testing.T) {
	source := []byte(`class Account(Base):
    balance = Column(Numeric)

def fetch(session):
    return session.query(Account).all()
`)
	points, fields := NewPythonExtractor().Extract(source, &facts.FileResult{Language: facts.LangPython})

	require.NotNil(t, fieldNamed(fields, "Account", "balance"))

	access := pointAt(points, 5)
	require.NotNil(t, access)
	assert.Equal(t, "sqlalchemy", access.Framework)
	assert.Equal(t, "Account", access.Table)
}

func TestJavaExtractor_JPA(t *testing.T) {
	source := []byte(`@Entity
@Table(name = "users")
public class User {
    private Long id;
    // sensitive: restricted
    private String taxId;
}

class UserService {
    public User find(Long id) {
        return userRepository.findById(id);
    }
}
`)
	points, fields := NewJavaExtractor().Extract(source, &facts.FileResult{Language: facts.LangJava})

	taxID := fieldNamed(fields, "users", "taxId")
	require.NotNil(t, taxID)
	assert.Equal(t, "String", taxID.Type)
	assert.Equal(t, TierRestricted, taxID.Tier)

	access := pointAt(points, 11)
	require.NotNil(t, access)
	assert.Equal(t, "spring-data", access.Framework)
	assert.Equal(t, OpRead, access.Operation)
	assert.Equal(t, "User", access.Table)
}

func TestCSharpExtractor_EFCore(t *testing.T) {
	source := []byte(`public class User {
    [Key]
    public int Id { get; set; }
    [PersonalData]
    public string Email { get; set; }
}

public class AppDbContext : DbContext {
    public DbSet<User> Users { get; set; }
}

public class UserService {
    public User Get(int id) {
        return _context.Users.Find(id);
    }
}
`)
	points, fields := NewCSharpExtractor().Extract(source, &facts.FileResult{Language: facts.LangCSharp})

	email := fieldNamed(fields, "User", "Email")
	require.NotNil(t, email)
	assert.Equal(t, TierConfidential, email.Tier)
	assert.Equal(t, ProvenanceDeclared, email.Provenance)
	assert.Equal(t, "[PersonalData]", email.Marker)

	schema := pointAt(points, 9)
	require.NotNil(t, schema)
	assert.Equal(t, OpSchema, schema.Operation)
	assert.Equal(t, "User", schema.Table)

	access := pointAt(points, 14)
	require.NotNil(t, access)
	assert.Equal(t, OpRead, access.Operation)
	assert.Equal(t, "User", access.Table)
}

func TestPHPExtractor_Eloquent(t *testing.T) {
	source := []byte(`<?php
class User extends Model {
    protected $fillable = ['name', 'email'];
}

function handler() {
    $users = User::where('active', true)->get();
    $rows = DB::table('payments')->select('card_number')->get();
}
`)
	points, fields := NewPHPExtractor().Extract(source, &facts.FileResult{Language: facts.LangPHP})

	require.NotNil(t, fieldNamed(fields, "User", "name"))
	require.NotNil(t, fieldNamed(fields, "User", "email"))

	eloquent := pointAt(points, 7)
	require.NotNil(t, eloquent)
	assert.Equal(t, "eloquent", eloquent.Framework)
	assert.Equal(t, "User", eloquent.Table)
	assert.Equal(t, OpRead, eloquent.Operation)

	builder := pointAt(points, 8)
	require.NotNil(t, builder)
	assert.Equal(t, "laravel-db", builder.Framework)
	assert.Equal(t, "payments", builder.Table)
	assert.Equal(t, []string{"card_number"}, builder.Fields)
}

func TestRawSQLExtractor(t *testing.T) {
	source := []byte(`const q1 = "SELECT ssn, email FROM users WHERE id = ?";
const q2 = "INSERT INTO audit_log (actor) VALUES (?)";
const q3 = "SELECT * FROM sessions";
const q4 = "DELETE FROM tokens WHERE expired = 1";
`)
	points, fields := NewRawSQLExtractor().Extract(source, &facts.FileResult{})
	assert.Nil(t, fields)
	require.Len(t, points, 4)

	sel := pointAt(points, 1)
	require.NotNil(t, sel)
	assert.Equal(t, OpRawSQL, sel.Operation)
	assert.Equal(t, "users", sel.Table)
	assert.Equal(t, []string{"ssn", "email"}, sel.Fields)
	assert.Equal(t, 0.5, sel.Confidence)

	ins := pointAt(points, 2)
	require.NotNil(t, ins)
	assert.Equal(t, "audit_log", ins.Table)

	star := pointAt(points, 3)
	require.NotNil(t, star)
	assert.Equal(t, "sessions", star.Table)
	assert.Equal(t, []string{Wildcard}, star.Fields)

	del := pointAt(points, 4)
	require.NotNil(t, del)
	assert.Equal(t, "tokens", del.Table)
}

func TestMarkerTier(t *testing.T) {
	tests := []struct {
		line string
		want Tier
		ok   bool
	}{
		{line: "// sensitive: restricted", want: TierRestricted, ok: true},
		{line: "# sensitive: confidential", want: TierConfidential, ok: true},
		{line: `@Sensitive("internal")`, want: TierInternal, ok: true},
		{line: "@sensitive(public)", want: TierPublic, ok: true},
		{line: "#[Sensitive('restricted')]", want: TierRestricted, ok: true},
		{line: "// sensitive: nonsense", ok: false},
		{line: "plain code line", ok: false},
	}
	for _, tt := range tests {
		tier, marker, ok := MarkerTier(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		if tt.ok {
			assert.Equal(t, tt.want, tier, tt.line)
			assert.NotEmpty(t, marker, tt.line)
		}
	}
}

func TestRegistry_ExtractFile(t *testing.T) {
	source := []byte(`const users = await prisma.user.findMany({ select: { ssn: true } });
const raw = db.query("SELECT ssn FROM users");
`)
	file := &facts.FileResult{
		Path:     "src/service.ts",
		Language: facts.LangTypeScript,
		Functions: []facts.Function{
			{Name: "load", QualifiedName: "load", StartLine: 1, EndLine: 5},
		},
	}
	points, _ := NewRegistry().ExtractFile(source, file)

	require.Len(t, points, 2)
	for _, p := range points {
		assert.Equal(t, "src/service.ts", p.File)
		assert.Equal(t, "load", p.Function)
	}
	// the prisma extractor outranks the raw-SQL safety net at the same line
	assert.Equal(t, "prisma", points[0].Framework)
	assert.Equal(t, "raw-sql", points[1].Framework)
}
